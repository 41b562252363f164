package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dberml/rpsduel/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// seedMatch records a short finished match: blue 2, red 0, one draw.
func seedMatch(t *testing.T, st *store.Store) *store.Session {
	t.Helper()
	sess, err := st.CreateSession("blue", "red")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	rounds := []store.Round{
		{SessionID: sess.ID, RoundNum: 1, Gesture1: "ROCK", Gesture2: "SCISSORS",
			Outcome1: "winner", Outcome2: "loser", P1Wins: 1},
		{SessionID: sess.ID, RoundNum: 2, Gesture1: "PAPER", Gesture2: "PAPER",
			Outcome1: "draw", Outcome2: "draw", P1Wins: 1, Draws: 1},
		{SessionID: sess.ID, RoundNum: 3, Gesture1: "PAPER", Gesture2: "ROCK",
			Outcome1: "winner", Outcome2: "loser", P1Wins: 2, Draws: 1},
	}
	for i := range rounds {
		if err := st.AppendRound(&rounds[i]); err != nil {
			t.Fatalf("AppendRound: %v", err)
		}
	}
	return sess
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestServer_Summary(t *testing.T) {
	st := newTestStore(t)
	s := New(Config{Store: st})

	t.Run("404 when no sessions exist", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	sess := seedMatch(t, st)

	t.Run("reports the latest session standing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp summaryResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Session == nil || resp.Session.ID != sess.ID {
			t.Fatalf("expected session %s in summary", sess.ID)
		}
		if resp.Rounds != 3 {
			t.Errorf("expected 3 rounds, got %d", resp.Rounds)
		}
		if resp.Wins["blue"] != 2 || resp.Wins["red"] != 0 {
			t.Errorf("wins = %v, want blue 2 red 0", resp.Wins)
		}
		if resp.Draws != 1 {
			t.Errorf("expected 1 draw, got %d", resp.Draws)
		}
		if resp.Result != "blue WINS" {
			t.Errorf("result = %q, want 'blue WINS'", resp.Result)
		}
	})

	t.Run("selects a session by id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summary?session="+sess.ID, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("404 for an unknown session id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summary?session=missing", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_Rounds(t *testing.T) {
	st := newTestStore(t)
	seedMatch(t, st)
	s := New(Config{Store: st})

	req := httptest.NewRequest(http.MethodGet, "/api/rounds", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var rounds []store.Round
	if err := json.NewDecoder(rec.Body).Decode(&rounds); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rounds) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(rounds))
	}
	if rounds[0].Gesture1 != "ROCK" || rounds[0].Outcome1 != "winner" {
		t.Errorf("unexpected first round: %+v", rounds[0])
	}
}

func TestServer_Chart(t *testing.T) {
	st := newTestStore(t)
	seedMatch(t, st)
	s := New(Config{Store: st, Colors: map[string]string{"blue": "#5470c6", "red": "#ee6666"}})

	req := httptest.NewRequest(http.MethodGet, "/chart", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected an HTML chart, got Content-Type %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "blue") || !strings.Contains(body, "red") {
		t.Error("expected both player series in the chart")
	}
}

func TestServer_StoreEndpointsAbsentWithoutStore(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/summary", "/api/rounds", "/chart"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestLiveHandler_BroadcastWithoutClients(t *testing.T) {
	h := NewLiveHandler()
	// Broadcasting into an empty feed must be a no-op.
	h.Broadcast(nil)
	if got := h.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}
}
