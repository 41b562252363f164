package tracker

// Smoother is a majority-vote filter over the last n classified gestures.
// It absorbs single-frame misclassifications before the debounce layer
// sees them. Absent labels are never pushed.
type Smoother struct {
	buf  []Gesture
	size int
}

// NewSmoother creates a Smoother over a window of n labels.
// Values of n below 1 fall back to a window of 1.
func NewSmoother(n int) *Smoother {
	if n < 1 {
		n = 1
	}
	return &Smoother{
		buf:  make([]Gesture, 0, n),
		size: n,
	}
}

// Update pushes a raw label and returns the current majority label.
// Pushing NoGesture is a no-op that still reports the majority.
func (s *Smoother) Update(g Gesture) Gesture {
	if g != NoGesture {
		if len(s.buf) == s.size {
			copy(s.buf, s.buf[1:])
			s.buf = s.buf[:s.size-1]
		}
		s.buf = append(s.buf, g)
	}
	return s.majority()
}

// majority returns the most frequent label in the window. On a tie the
// label whose run was seen first wins; the choice is not significant.
func (s *Smoother) majority() Gesture {
	if len(s.buf) == 0 {
		return NoGesture
	}

	counts := make(map[Gesture]int, 3)
	best := NoGesture
	bestCount := 0
	for _, g := range s.buf {
		counts[g]++
		if counts[g] > bestCount {
			best = g
			bestCount = counts[g]
		}
	}
	return best
}

// Reset clears the window.
func (s *Smoother) Reset() {
	s.buf = s.buf[:0]
}
