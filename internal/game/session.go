package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/dberml/rpsduel/internal/announce"
	"github.com/dberml/rpsduel/internal/capture"
	"github.com/dberml/rpsduel/internal/debounce"
	"github.com/dberml/rpsduel/internal/lock"
	"github.com/dberml/rpsduel/internal/store"
	"github.com/dberml/rpsduel/internal/tracker"
)

// Session timing defaults, in frames and wall-clock time.
const (
	DefaultHideFrames    = 15
	DefaultStableFrames  = 12
	DefaultRoundTimeout  = 10 * time.Second
	DefaultCountdownStep = 700 * time.Millisecond
)

// pausePoll is how often a paused session checks for resumption.
const pausePoll = 100 * time.Millisecond

// countdownWords is spoken before each round, last word on the reveal.
var countdownWords = []string{"Rock", "Paper", "Scissors", "Shoot!"}

// SessionConfig tunes the match loop.
type SessionConfig struct {
	// HideFrames is how many consecutive frames both players must be
	// undetected before a round countdown starts.
	HideFrames int
	// StableFrames is the per-player gesture debounce threshold for
	// capturing a round.
	StableFrames int
	// RoundTimeout bounds the capture wait; on expiry the last held
	// gestures are taken, absent ones score as null.
	RoundTimeout time.Duration
	// CountdownStep is the pause between countdown words.
	CountdownStep time.Duration
	// MaxRounds ends the match after that many rounds; 0 means no limit.
	MaxRounds int
	// LockEnabled gates the match behind the gesture sequence lock.
	LockEnabled bool
	Lock        lock.Config
}

// DefaultSessionConfig returns the tuned defaults with the lock disabled.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HideFrames:    DefaultHideFrames,
		StableFrames:  DefaultStableFrames,
		RoundTimeout:  DefaultRoundTimeout,
		CountdownStep: DefaultCountdownStep,
		Lock:          lock.DefaultConfig(),
	}
}

// Session runs a two-player match: an optional unlock phase, then a loop
// of hide / countdown / capture rounds. It owns the ledger; the camera,
// tracker, store and announcer are injected collaborators.
type Session struct {
	cfg       SessionConfig
	camera    capture.Camera
	tracker   *tracker.Tracker
	undistort *capture.Undistorter
	voice     announce.Announcer
	db        *store.Store
	publish   func(map[string]tracker.Observation)

	ledger  *Ledger
	player1 string
	player2 string
	record  *store.Session

	// running gates frame consumption; a paused session holds in step
	// without reading the camera. Toggled from the tray goroutine.
	running atomic.Bool

	// sleep and now are swapped out in tests so countdowns and timeouts
	// do not wall-clock wait.
	sleep func(time.Duration)
	now   func() time.Time
}

// SessionOption customizes a Session at construction.
type SessionOption func(*Session)

// WithUndistorter applies lens correction to every captured frame.
func WithUndistorter(u *capture.Undistorter) SessionOption {
	return func(s *Session) { s.undistort = u }
}

// WithStore persists the session and its rounds.
func WithStore(db *store.Store) SessionOption {
	return func(s *Session) { s.db = db }
}

// WithPublisher forwards every frame's observations, e.g. to live
// websocket clients. The callback must not retain the map.
func WithPublisher(fn func(map[string]tracker.Observation)) SessionOption {
	return func(s *Session) { s.publish = fn }
}

// WithAnnouncer replaces the default log announcer.
func WithAnnouncer(a announce.Announcer) SessionOption {
	return func(s *Session) { s.voice = a }
}

// NewSession wires a match for the two named players. Both names must be
// tracked colors.
func NewSession(cfg SessionConfig, cam capture.Camera, trk *tracker.Tracker,
	player1, player2 string, opts ...SessionOption) (*Session, error) {

	if cfg.HideFrames < 1 {
		cfg.HideFrames = DefaultHideFrames
	}
	if cfg.StableFrames < 1 {
		cfg.StableFrames = DefaultStableFrames
	}
	if cfg.RoundTimeout <= 0 {
		cfg.RoundTimeout = DefaultRoundTimeout
	}
	if cfg.CountdownStep <= 0 {
		cfg.CountdownStep = DefaultCountdownStep
	}

	ledger, err := NewLedger(player1, player2)
	if err != nil {
		return nil, err
	}

	tracked := map[string]bool{}
	for _, name := range trk.Colors() {
		tracked[name] = true
	}
	if !tracked[player1] || !tracked[player2] {
		return nil, fmt.Errorf("game: players %q, %q must both be tracked colors", player1, player2)
	}

	s := &Session{
		cfg:     cfg,
		camera:  cam,
		tracker: trk,
		voice:   announce.Logger{},
		ledger:  ledger,
		player1: player1,
		player2: player2,
		sleep:   time.Sleep,
		now:     time.Now,
	}
	s.running.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetRunning pauses or resumes frame consumption. Safe to call from
// another goroutine while Run is active.
func (s *Session) SetRunning(running bool) {
	s.running.Store(running)
}

// Running reports whether the session is consuming frames.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Ledger exposes the running score and history.
func (s *Session) Ledger() *Ledger { return s.ledger }

// Run plays the match until MaxRounds, camera exhaustion, or ctx
// cancellation. A camera read failure ends the session gracefully.
func (s *Session) Run(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}

	if s.cfg.LockEnabled {
		if err := s.runLock(ctx); err != nil {
			if errors.Is(err, errCameraDone) {
				log.Printf("session: camera ended during lock phase")
				return nil
			}
			return err
		}
	}

	for s.cfg.MaxRounds == 0 || s.ledger.Rounds() < s.cfg.MaxRounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.playRound(ctx); err != nil {
			if errors.Is(err, errCameraDone) {
				log.Printf("session: camera ended after %d rounds", s.ledger.Rounds())
				return nil
			}
			return err
		}
	}
	return nil
}

// begin creates the persistent session record when a store is attached.
func (s *Session) begin() error {
	if s.db == nil {
		return nil
	}
	rec, err := s.db.CreateSession(s.player1, s.player2)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s.record = rec
	return nil
}

var errCameraDone = errors.New("session: camera stream ended")

// step captures, corrects and tracks one frame, then publishes the
// observations. A paused session holds here without touching the
// camera until resumed or cancelled.
func (s *Session) step(ctx context.Context) (map[string]tracker.Observation, error) {
	for !s.running.Load() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.sleep(pausePoll)
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		return nil, errCameraDone
	}
	defer frame.Close()

	if s.undistort != nil {
		s.undistort.Apply(frame)
	}

	obs := s.tracker.Update(*frame)
	if s.publish != nil {
		s.publish(obs)
	}
	return obs, nil
}

// runLock drives the sequence lock until it unlocks. Lock timeouts are
// enforced here: progress that stalls past the configured timeout resets
// the lock to its armed state.
func (s *Session) runLock(ctx context.Context) error {
	lk, err := lock.New(s.cfg.Lock)
	if err != nil {
		return err
	}

	s.voice.Say("Show the start gesture to unlock")
	lastProgress := s.now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		obs, err := s.step(ctx)
		if err != nil {
			return err
		}

		pair := lock.PairOf(obs, s.player1, s.player2)
		if lk.Update(pair) {
			s.voice.Say("Unlocked")
			return nil
		}

		switch lk.LastEvent() {
		case lock.EventArmed:
			s.voice.Say("Lock armed, select the first gesture")
			lastProgress = s.now()
		case lock.EventSelected:
			s.voice.Say("Selection taken, confirm it")
			lastProgress = s.now()
		case lock.EventConfirmed:
			s.voice.Say(fmt.Sprintf("Step %d accepted", lk.StepIndex()))
			lastProgress = s.now()
		case lock.EventWrong:
			s.voice.Say("Wrong, starting over")
			lastProgress = s.now()
		}

		if s.cfg.Lock.Timeout > 0 && lk.Phase() != lock.PhaseArm &&
			s.now().Sub(lastProgress) > s.cfg.Lock.Timeout {
			lk.Reset()
			s.voice.Say("Too slow, starting over")
			lastProgress = s.now()
		}
	}
}

// playRound runs a single hide / countdown / capture cycle and records
// the result.
func (s *Session) playRound(ctx context.Context) error {
	s.voice.Say("Hide your hands")
	if err := s.waitHidden(ctx); err != nil {
		return err
	}

	if err := s.countdown(ctx); err != nil {
		return err
	}

	g1, g2, err := s.captureGestures(ctx)
	if err != nil {
		return err
	}

	rec := s.ledger.AddRound(g1, g2)
	s.announceRound(rec)

	if s.db != nil && s.record != nil {
		if err := s.persistRound(rec); err != nil {
			// Persistence failure does not abort the match.
			log.Printf("session: persist round %d: %v", rec.Round, err)
		}
	}
	return nil
}

// waitHidden blocks until both players are undetected for HideFrames
// consecutive frames.
func (s *Session) waitHidden(ctx context.Context) error {
	hidden := 0
	for hidden < s.cfg.HideFrames {
		if err := ctx.Err(); err != nil {
			return err
		}
		obs, err := s.step(ctx)
		if err != nil {
			return err
		}
		if obs[s.player1].Detected || obs[s.player2].Detected {
			hidden = 0
			continue
		}
		hidden++
	}
	return nil
}

// countdown speaks the ritual while keeping the tracker fed so the
// filters stay warm through the reveal.
func (s *Session) countdown(ctx context.Context) error {
	for _, word := range countdownWords {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.voice.Say(word)
		if _, err := s.step(ctx); err != nil {
			return err
		}
		s.sleep(s.cfg.CountdownStep)
	}
	return nil
}

// captureGestures waits for both players to hold a gesture for
// StableFrames consecutive frames. On timeout the last held gestures are
// taken as-is; an absent gesture resolves the round as null.
func (s *Session) captureGestures(ctx context.Context) (tracker.Gesture, tracker.Gesture, error) {
	c1 := debounce.New[tracker.Gesture]()
	c2 := debounce.New[tracker.Gesture]()
	deadline := s.now().Add(s.cfg.RoundTimeout)

	var g1, g2 tracker.Gesture
	for {
		if err := ctx.Err(); err != nil {
			return tracker.NoGesture, tracker.NoGesture, err
		}

		obs, err := s.step(ctx)
		if err != nil {
			return tracker.NoGesture, tracker.NoGesture, err
		}

		g1 = frameGesture(obs[s.player1])
		g2 = frameGesture(obs[s.player2])
		n1 := c1.Update(g1, g1 != tracker.NoGesture)
		n2 := c2.Update(g2, g2 != tracker.NoGesture)

		if n1 >= s.cfg.StableFrames && n2 >= s.cfg.StableFrames {
			return g1, g2, nil
		}

		if s.now().After(deadline) {
			h1, _ := c1.Last()
			h2, _ := c2.Last()
			return h1, h2, nil
		}
	}
}

// frameGesture extracts one player's gesture for this frame, absent when
// the blob is undetected.
func frameGesture(o tracker.Observation) tracker.Gesture {
	if !o.Detected {
		return tracker.NoGesture
	}
	return o.Gesture
}

// announceRound speaks the resolved result.
func (s *Session) announceRound(rec RoundRecord) {
	switch rec.Outcome[s.player1] {
	case LabelWinner:
		s.voice.Say(fmt.Sprintf("Round %d: %s wins", rec.Round, s.player1))
	case LabelLoser:
		s.voice.Say(fmt.Sprintf("Round %d: %s wins", rec.Round, s.player2))
	case LabelDraw:
		s.voice.Say(fmt.Sprintf("Round %d: draw", rec.Round))
	default:
		s.voice.Say(fmt.Sprintf("Round %d: no contest", rec.Round))
	}
}

// persistRound writes one round row with the post-round score snapshot.
func (s *Session) persistRound(rec RoundRecord) error {
	return s.db.AppendRound(&store.Round{
		SessionID: s.record.ID,
		RoundNum:  rec.Round,
		Gesture1:  string(rec.Gestures[s.player1]),
		Gesture2:  string(rec.Gestures[s.player2]),
		Outcome1:  rec.Outcome[s.player1],
		Outcome2:  rec.Outcome[s.player2],
		P1Wins:    rec.Score.Wins[s.player1],
		P2Wins:    rec.Score.Wins[s.player2],
		Draws:     rec.Score.Draws,
		Nulls:     rec.Score.Nulls,
	})
}
