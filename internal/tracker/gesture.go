package tracker

import (
	"fmt"
	"strings"
)

// Gesture is a classified hand shape.
type Gesture string

const (
	Rock     Gesture = "ROCK"
	Paper    Gesture = "PAPER"
	Scissors Gesture = "SCISSORS"

	// NoGesture marks frames where classification produced nothing.
	NoGesture Gesture = ""
)

// GestureFromFingers maps an extended-finger count to a gesture label.
// The three-way bucket is intentionally coarse: it recognizes the three
// game shapes, not arbitrary hand poses.
func GestureFromFingers(count int) Gesture {
	switch {
	case count <= 1:
		return Rock
	case count == 2:
		return Scissors
	default:
		return Paper
	}
}

// ParseGesture normalizes a configured label into a Gesture.
func ParseGesture(s string) (Gesture, error) {
	switch Gesture(strings.ToUpper(strings.TrimSpace(s))) {
	case Rock:
		return Rock, nil
	case Paper:
		return Paper, nil
	case Scissors:
		return Scissors, nil
	default:
		return NoGesture, fmt.Errorf("unknown gesture %q", s)
	}
}
