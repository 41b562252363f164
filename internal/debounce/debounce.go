// Package debounce provides the stability counter used to accept a
// discrete event only after the same value has held for a required
// number of consecutive frames.
package debounce

// Counter tracks how many consecutive updates carried equal, present
// values. Round capture debounces each player's gesture with plain
// equality; the sequence lock counts qualifying frames through a custom
// predicate. Not safe for concurrent use.
type Counter[T any] struct {
	eq      func(a, b T) bool
	last    T
	present bool
	streak  int
}

// New returns a Counter comparing values with ==.
func New[T comparable]() *Counter[T] {
	return &Counter[T]{eq: func(a, b T) bool { return a == b }}
}

// NewFunc returns a Counter with a custom equality predicate.
func NewFunc[T any](eq func(a, b T) bool) *Counter[T] {
	return &Counter[T]{eq: eq}
}

// Update feeds one frame's value and returns the streak after it.
// present=false marks an absent value: the streak drops to zero. A
// present value equal to the previous one extends the streak; a present
// but different value starts a new streak of one.
func (c *Counter[T]) Update(v T, present bool) int {
	switch {
	case !present:
		var zero T
		c.last = zero
		c.streak = 0
	case c.present && c.eq(v, c.last):
		c.last = v
		c.streak++
	default:
		c.last = v
		c.streak = 1
	}
	c.present = present
	return c.streak
}

// Streak returns the current consecutive count.
func (c *Counter[T]) Streak() int {
	return c.streak
}

// Last returns the most recent value and whether it was present.
func (c *Counter[T]) Last() (T, bool) {
	return c.last, c.present
}

// Reset clears the counter.
func (c *Counter[T]) Reset() {
	var zero T
	c.last = zero
	c.present = false
	c.streak = 0
}
