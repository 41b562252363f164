package tracker

import "testing"

func TestSmoother_MajorityVote(t *testing.T) {
	s := NewSmoother(5)

	if got := s.Update(Rock); got != Rock {
		t.Errorf("first label: expected ROCK, got %q", got)
	}

	// A single misclassified frame does not flip the majority.
	s.Update(Rock)
	s.Update(Rock)
	if got := s.Update(Paper); got != Rock {
		t.Errorf("expected majority ROCK to hold, got %q", got)
	}

	// A sustained new label eventually takes over as old votes fall out.
	var got Gesture
	for i := 0; i < 5; i++ {
		got = s.Update(Paper)
	}
	if got != Paper {
		t.Errorf("expected sustained PAPER to win, got %q", got)
	}
}

func TestSmoother_AbsentLabelIsNotPushed(t *testing.T) {
	s := NewSmoother(3)
	s.Update(Scissors)

	// NoGesture reports the current majority without voting.
	if got := s.Update(NoGesture); got != Scissors {
		t.Errorf("expected SCISSORS majority to persist, got %q", got)
	}

	empty := NewSmoother(3)
	if got := empty.Update(NoGesture); got != NoGesture {
		t.Errorf("expected empty smoother to report no gesture, got %q", got)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(4)
	s.Update(Rock)
	s.Update(Rock)
	s.Reset()

	if got := s.Update(Paper); got != Paper {
		t.Errorf("expected fresh majority PAPER after reset, got %q", got)
	}
}

func TestNewSmoother_MinimumWindow(t *testing.T) {
	s := NewSmoother(0)
	s.Update(Rock)
	if got := s.Update(Paper); got != Paper {
		t.Errorf("window of 1: expected latest label, got %q", got)
	}
}
