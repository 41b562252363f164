package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateAndGetSession(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.CreateSession("blue", "red")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a generated session id")
	}

	got, err := s.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Player1 != "blue" || got.Player2 != "red" {
		t.Errorf("players = (%s, %s), want (blue, red)", got.Player1, got.Player2)
	}
}

func TestStore_GetSessionNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetSession("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.LatestSession(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from empty LatestSession, got %v", err)
	}
}

func TestStore_AppendAndListRounds(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.CreateSession("blue", "red")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	rounds := []Round{
		{SessionID: sess.ID, RoundNum: 1, Gesture1: "ROCK", Gesture2: "SCISSORS",
			Outcome1: "winner", Outcome2: "loser", P1Wins: 1},
		{SessionID: sess.ID, RoundNum: 2, Gesture1: "PAPER", Gesture2: "PAPER",
			Outcome1: "draw", Outcome2: "draw", P1Wins: 1, Draws: 1},
		{SessionID: sess.ID, RoundNum: 3, Gesture1: "", Gesture2: "ROCK",
			Outcome1: "null", Outcome2: "null", P1Wins: 1, Draws: 1, Nulls: 1},
	}
	for i := range rounds {
		if err := s.AppendRound(&rounds[i]); err != nil {
			t.Fatalf("AppendRound %d: %v", i+1, err)
		}
		if rounds[i].ID == 0 {
			t.Errorf("round %d: expected a row id", i+1)
		}
	}

	got, err := s.ListRounds(sess.ID)
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(got))
	}
	for i, r := range got {
		if r.RoundNum != i+1 {
			t.Errorf("round %d out of order: got num %d", i, r.RoundNum)
		}
	}
	last := got[2]
	if last.P1Wins != 1 || last.Draws != 1 || last.Nulls != 1 {
		t.Errorf("final snapshot = %+v, want wins 1 draws 1 nulls 1", last)
	}
	if last.Gesture1 != "" {
		t.Errorf("expected absent gesture to round-trip empty, got %q", last.Gesture1)
	}
}

func TestStore_DuplicateRoundNumberRejected(t *testing.T) {
	s := newTestStore(t)

	sess, _ := s.CreateSession("blue", "red")
	r1 := Round{SessionID: sess.ID, RoundNum: 1, Outcome1: "draw", Outcome2: "draw"}
	if err := s.AppendRound(&r1); err != nil {
		t.Fatalf("AppendRound: %v", err)
	}
	dup := Round{SessionID: sess.ID, RoundNum: 1, Outcome1: "draw", Outcome2: "draw"}
	if err := s.AppendRound(&dup); err == nil {
		t.Error("expected a uniqueness error for a duplicate round number")
	}
}

func TestStore_LatestSession(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateSession("blue", "red"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	second, err := s.CreateSession("green", "yellow")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	latest, err := s.LatestSession()
	if err != nil {
		t.Fatalf("LatestSession: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("expected latest session %s, got %s", second.ID, latest.ID)
	}
}
