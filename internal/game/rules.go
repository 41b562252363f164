// Package game scores rock-paper-scissors rounds and runs the
// frame-synchronous match session.
package game

import "github.com/dberml/rpsduel/internal/tracker"

// Outcome is the resolution of one round from the decider's view.
type Outcome string

const (
	// OutcomeNull means at least one gesture was absent.
	OutcomeNull Outcome = "null"
	OutcomeDraw Outcome = "draw"
	OutcomeP1   Outcome = "p1"
	OutcomeP2   Outcome = "p2"
)

// Per-player labels recorded in round history.
const (
	LabelWinner = "winner"
	LabelLoser  = "loser"
	LabelDraw   = "draw"
	LabelNull   = "null"
)

var beats = map[tracker.Gesture]tracker.Gesture{
	tracker.Rock:     tracker.Scissors,
	tracker.Scissors: tracker.Paper,
	tracker.Paper:    tracker.Rock,
}

// Winner resolves one simultaneous gesture pair. A missing gesture on
// either side voids the round; equal gestures draw; otherwise the
// standard cyclic precedence decides.
func Winner(g1, g2 tracker.Gesture) Outcome {
	if g1 == tracker.NoGesture || g2 == tracker.NoGesture {
		return OutcomeNull
	}
	if g1 == g2 {
		return OutcomeDraw
	}
	if beats[g1] == g2 {
		return OutcomeP1
	}
	return OutcomeP2
}
