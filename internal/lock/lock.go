// Package lock implements the gesture-pair sequence lock: a layered
// finite-state machine that accepts a secret ordered list of two-player
// gesture pairs, each selected and then confirmed with a distinguished
// confirm pair. A single wrong confirmation forfeits all progress.
package lock

import (
	"errors"
	"fmt"
	"time"

	"github.com/dberml/rpsduel/internal/debounce"
	"github.com/dberml/rpsduel/internal/tracker"
)

// Pair is one frame's simultaneous gesture observation for both players.
// Either side may be absent (tracker.NoGesture).
type Pair struct {
	A tracker.Gesture
	B tracker.Gesture
}

// BothPresent reports whether both players showed a gesture.
func (p Pair) BothPresent() bool {
	return p.A != tracker.NoGesture && p.B != tracker.NoGesture
}

// String renders the pair for status lines; absent sides show "?".
func (p Pair) String() string {
	a, b := string(p.A), string(p.B)
	if a == "" {
		a = "?"
	}
	if b == "" {
		b = "?"
	}
	return a + "+" + b
}

// PairOf extracts the two players' gestures from a frame's observations.
// An undetected player contributes an absent gesture.
func PairOf(obs map[string]tracker.Observation, p1, p2 string) Pair {
	var pair Pair
	if o, ok := obs[p1]; ok && o.Detected {
		pair.A = o.Gesture
	}
	if o, ok := obs[p2]; ok && o.Detected {
		pair.B = o.Gesture
	}
	return pair
}

// Phase is the lock's position in the unlock flow. The set is closed:
// transitions happen only inside Update.
type Phase int

const (
	PhaseArm Phase = iota
	PhaseSelect
	PhaseConfirm
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseArm:
		return "ARM"
	case PhaseSelect:
		return "SELECT"
	case PhaseConfirm:
		return "CONFIRM"
	case PhaseDone:
		return "DONE"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Event reports what, if anything, Update decided this frame.
type Event string

const (
	EventNone      Event = ""
	EventArmed     Event = "armed"
	EventSelected  Event = "selected"
	EventConfirmed Event = "confirmed"
	EventWrong     Event = "wrong"
	EventUnlocked  Event = "unlocked"
)

// Config holds the lock's password and timing parameters.
type Config struct {
	// Steps is the expected pair sequence, in order. Empty means the
	// confirm pair alone unlocks.
	Steps []Pair
	// ConfirmPair both arms the lock and confirms each selection.
	ConfirmPair Pair
	// StableFrames is how many consecutive qualifying frames accept a
	// selection or confirmation.
	StableFrames int
	// SettleFrames is the post-transition cooldown during which input
	// is ignored, so one long hold is not read as two events.
	SettleFrames int
	// WrongFlashFrames is how long the wrong-password notice persists.
	WrongFlashFrames int
	// Timeout is advisory: the host enforces it across frame updates.
	Timeout time.Duration
}

// DefaultConfig mirrors the tuned game defaults.
func DefaultConfig() Config {
	return Config{
		ConfirmPair:      Pair{A: tracker.Rock, B: tracker.Rock},
		StableFrames:     14,
		SettleFrames:     12,
		WrongFlashFrames: 45,
		Timeout:          12 * time.Second,
	}
}

// Lock is the sequence-lock state machine. Create once per
// authentication session; Reset returns it to ARM without touching the
// configuration. Not safe for concurrent use.
type Lock struct {
	cfg Config

	phase       Phase
	stepIndex   int
	selected    Pair
	hasSelected bool

	// stable counts consecutive qualifying frames. The predicate is
	// always-equal: qualification is decided per phase and passed as
	// the presence flag, so any run of qualifying frames counts.
	stable   *debounce.Counter[Pair]
	cooldown int

	wrongFlash    int
	wrongSelected Pair
	wrongExpected Pair
	hasWrong      bool

	lastPair  Pair
	lastEvent Event
}

// New validates the configuration and builds a lock in ARM.
func New(cfg Config) (*Lock, error) {
	if cfg.StableFrames < 1 {
		return nil, errors.New("lock: StableFrames must be at least 1")
	}
	if !cfg.ConfirmPair.BothPresent() {
		return nil, errors.New("lock: confirm pair needs both gestures")
	}
	for i, step := range cfg.Steps {
		if !step.BothPresent() {
			return nil, fmt.Errorf("lock: step %d needs both gestures", i)
		}
	}

	l := &Lock{
		cfg:    cfg,
		stable: debounce.NewFunc[Pair](func(a, b Pair) bool { return true }),
	}
	l.Reset()
	return l, nil
}

// Reset returns the lock to ARM at step 0. The wrong-flash counter is
// display state and survives so the notice stays visible.
func (l *Lock) Reset() {
	l.phase = PhaseArm
	l.stepIndex = 0
	l.selected = Pair{}
	l.hasSelected = false
	l.stable.Reset()
	l.cooldown = 0
	l.lastPair = Pair{}
	l.lastEvent = EventNone
}

// Update consumes one frame's observed pair. It returns true exactly
// from the frame that reaches DONE onward.
func (l *Lock) Update(pair Pair) bool {
	l.lastEvent = EventNone

	if l.wrongFlash > 0 {
		l.wrongFlash--
	}

	// Cooldown between transitions: input is ignored but the observed
	// pair is still recorded for display.
	if l.cooldown > 0 {
		l.cooldown--
		l.lastPair = pair
		return l.phase == PhaseDone
	}

	l.lastPair = pair

	switch l.phase {
	case PhaseDone:
		return true

	case PhaseArm:
		if l.held(pair, pair == l.cfg.ConfirmPair) {
			if len(l.cfg.Steps) > 0 {
				l.phase = PhaseSelect
				l.lastEvent = EventArmed
				l.settle()
			} else {
				l.phase = PhaseDone
				l.lastEvent = EventUnlocked
			}
		}

	case PhaseSelect:
		if l.stepIndex >= len(l.cfg.Steps) {
			l.phase = PhaseDone
			l.lastEvent = EventUnlocked
			return true
		}
		// Any pair with both gestures present is selectable, except the
		// confirm pair. The expected step is never consulted here: the
		// password stays secret during entry.
		selectable := pair.BothPresent() && pair != l.cfg.ConfirmPair
		if l.held(pair, selectable) {
			l.selected = pair
			l.hasSelected = true
			l.phase = PhaseConfirm
			l.lastEvent = EventSelected
			l.settle()
		}

	case PhaseConfirm:
		if l.held(pair, pair == l.cfg.ConfirmPair) {
			l.confirm()
		}
	}

	return l.phase == PhaseDone
}

// confirm checks the stored selection against the expected step.
func (l *Lock) confirm() {
	if l.stepIndex >= len(l.cfg.Steps) || !l.hasSelected {
		l.wrong()
		return
	}

	expected := l.cfg.Steps[l.stepIndex]
	if l.selected != expected {
		l.wrong()
		return
	}

	l.selected = Pair{}
	l.hasSelected = false
	l.stepIndex++

	if l.stepIndex >= len(l.cfg.Steps) {
		l.phase = PhaseDone
		l.lastEvent = EventUnlocked
		return
	}

	l.phase = PhaseSelect
	l.lastEvent = EventConfirmed
	l.settle()
}

// wrong records the failed confirmation and resets the whole lock to
// ARM at step 0: one wrong confirmation forfeits all prior progress.
func (l *Lock) wrong() {
	l.wrongSelected = l.selected
	if l.stepIndex < len(l.cfg.Steps) {
		l.wrongExpected = l.cfg.Steps[l.stepIndex]
	} else {
		l.wrongExpected = Pair{}
	}
	l.hasWrong = true
	l.wrongFlash = l.cfg.WrongFlashFrames

	l.Reset()
	l.lastEvent = EventWrong
	l.settle()
}

// held feeds the shared stability counter and reports whether the
// qualifying streak reached the threshold (and consumes it if so).
func (l *Lock) held(pair Pair, qualifies bool) bool {
	if l.stable.Update(pair, qualifies) < l.cfg.StableFrames {
		return false
	}
	l.stable.Reset()
	return true
}

func (l *Lock) settle() {
	if l.cfg.SettleFrames > 0 {
		l.cooldown = l.cfg.SettleFrames
	}
}

// Unlocked reports whether the lock has reached DONE.
func (l *Lock) Unlocked() bool { return l.phase == PhaseDone }

// Phase returns the current phase.
func (l *Lock) Phase() Phase { return l.phase }

// StepIndex returns the index of the next expected step.
func (l *Lock) StepIndex() int { return l.stepIndex }

// LastEvent returns the event decided by the most recent Update.
func (l *Lock) LastEvent() Event { return l.lastEvent }

// LastPair returns the pair observed by the most recent Update.
func (l *Lock) LastPair() Pair { return l.lastPair }

// Selected returns the provisionally selected pair, if any.
func (l *Lock) Selected() (Pair, bool) { return l.selected, l.hasSelected }

// LastWrong returns the selection and expectation of the most recent
// wrong confirmation.
func (l *Lock) LastWrong() (selected, expected Pair, ok bool) {
	return l.wrongSelected, l.wrongExpected, l.hasWrong
}

// StatusText renders a display-only status line for the current state.
func (l *Lock) StatusText() string {
	if l.wrongFlash > 0 {
		return "PASSWORD WRONG"
	}

	total := len(l.cfg.Steps)
	stepNum := l.stepIndex + 1
	if maxStep := max(total, 1); stepNum > maxStep {
		stepNum = maxStep
	}

	switch l.phase {
	case PhaseArm:
		return fmt.Sprintf("LOCK | SHOW %s TO START (%d/%d)",
			l.cfg.ConfirmPair, l.stable.Streak(), l.cfg.StableFrames)
	case PhaseSelect:
		// The expected pair is deliberately not shown.
		return fmt.Sprintf("LOCK | STEP %d/%d | SELECT GESTURE (%d/%d)",
			stepNum, total, l.stable.Streak(), l.cfg.StableFrames)
	case PhaseConfirm:
		return fmt.Sprintf("LOCK | STEP %d/%d | SELECTED %s | CONFIRM %s (%d/%d)",
			stepNum, total, l.selected, l.cfg.ConfirmPair,
			l.stable.Streak(), l.cfg.StableFrames)
	case PhaseDone:
		return "LOCK | UNLOCKED"
	default:
		return "LOCK"
	}
}
