// Package server exposes match results over HTTP: a JSON summary of the
// latest session, the round history, a rendered score chart and a live
// observation feed over WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dberml/rpsduel/internal/store"
	"github.com/dberml/rpsduel/internal/tracker"
)

// Config holds the server configuration.
type Config struct {
	Store     *store.Store
	StaticDir string
	// Colors maps player names to display hex colors for the chart.
	Colors map[string]string
}

// Server is the results HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	live   *LiveHandler
	start  time.Time
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		live:   NewLiveHandler(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/live", s.live)

	if s.config.Store != nil {
		s.mux.HandleFunc("/api/summary", s.handleSummary)
		s.mux.HandleFunc("/api/rounds", s.handleRounds)
		s.mux.HandleFunc("/chart", s.handleChart)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Publish forwards one frame's observations to the live feed.
func (s *Server) Publish(obs map[string]tracker.Observation) {
	s.live.Broadcast(obs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// summaryResponse mirrors the stored score of one session.
type summaryResponse struct {
	Session *store.Session `json:"session"`
	Rounds  int            `json:"rounds"`
	Wins    map[string]int `json:"wins"`
	Draws   int            `json:"draws"`
	Nulls   int            `json:"nulls"`
	Result  string         `json:"result"`
}

// handleSummary reports the latest session's final standing.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, rounds, ok := s.sessionRounds(w, r)
	if !ok {
		return
	}

	resp := summaryResponse{
		Session: sess,
		Rounds:  len(rounds),
		Wins:    map[string]int{sess.Player1: 0, sess.Player2: 0},
		Result:  "NO ROUNDS PLAYED",
	}
	if n := len(rounds); n > 0 {
		last := rounds[n-1]
		resp.Wins[sess.Player1] = last.P1Wins
		resp.Wins[sess.Player2] = last.P2Wins
		resp.Draws = last.Draws
		resp.Nulls = last.Nulls
		resp.Result = resultText(sess, last)
	}
	writeJSON(w, resp)
}

// resultText renders the final standing line.
func resultText(sess *store.Session, last store.Round) string {
	switch {
	case last.P1Wins > last.P2Wins:
		return sess.Player1 + " WINS"
	case last.P2Wins > last.P1Wins:
		return sess.Player2 + " WINS"
	default:
		return "MATCH DRAWN"
	}
}

// handleRounds lists a session's round history.
func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, rounds, ok := s.sessionRounds(w, r)
	if !ok {
		return
	}
	writeJSON(w, rounds)
}

// sessionRounds resolves the requested session (?session=<id>, default
// latest) and loads its rounds.
func (s *Server) sessionRounds(w http.ResponseWriter, r *http.Request) (*store.Session, []store.Round, bool) {
	var (
		sess *store.Session
		err  error
	)
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err = s.config.Store.GetSession(id)
	} else {
		sess, err = s.config.Store.LatestSession()
	}
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "no sessions recorded", http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, nil, false
	}

	rounds, err := s.config.Store.ListRounds(sess.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, nil, false
	}
	return sess, rounds, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
