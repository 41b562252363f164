package game

import (
	"testing"

	"github.com/dberml/rpsduel/internal/tracker"
)

func TestWinner(t *testing.T) {
	cases := []struct {
		name string
		g1   tracker.Gesture
		g2   tracker.Gesture
		want Outcome
	}{
		{"rock crushes scissors", tracker.Rock, tracker.Scissors, OutcomeP1},
		{"scissors cut paper", tracker.Scissors, tracker.Paper, OutcomeP1},
		{"paper covers rock", tracker.Paper, tracker.Rock, OutcomeP1},
		{"scissors lose to rock", tracker.Scissors, tracker.Rock, OutcomeP2},
		{"paper loses to scissors", tracker.Paper, tracker.Scissors, OutcomeP2},
		{"rock loses to paper", tracker.Rock, tracker.Paper, OutcomeP2},
		{"equal gestures draw", tracker.Rock, tracker.Rock, OutcomeDraw},
		{"paper draw", tracker.Paper, tracker.Paper, OutcomeDraw},
		{"missing first gesture voids", tracker.NoGesture, tracker.Rock, OutcomeNull},
		{"missing second gesture voids", tracker.Paper, tracker.NoGesture, OutcomeNull},
		{"both missing voids", tracker.NoGesture, tracker.NoGesture, OutcomeNull},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Winner(tc.g1, tc.g2); got != tc.want {
				t.Errorf("Winner(%q, %q) = %q, want %q", tc.g1, tc.g2, got, tc.want)
			}
		})
	}
}

func TestWinner_Antisymmetric(t *testing.T) {
	all := []tracker.Gesture{tracker.Rock, tracker.Paper, tracker.Scissors}
	for _, a := range all {
		for _, b := range all {
			if a == b {
				continue
			}
			fwd, rev := Winner(a, b), Winner(b, a)
			if fwd == OutcomeP1 && rev != OutcomeP2 || fwd == OutcomeP2 && rev != OutcomeP1 {
				t.Errorf("Winner(%q, %q)=%q but Winner(%q, %q)=%q", a, b, fwd, b, a, rev)
			}
		}
	}
}
