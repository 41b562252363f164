package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("store: not found")

// Session is one recorded match between two players.
type Session struct {
	ID        string    `json:"id"`
	Player1   string    `json:"player1"`
	Player2   string    `json:"player2"`
	StartedAt time.Time `json:"started_at"`
}

// Round is one resolved round with a snapshot of the running score.
type Round struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	RoundNum  int       `json:"round_num"`
	Gesture1  string    `json:"gesture1"`
	Gesture2  string    `json:"gesture2"`
	Outcome1  string    `json:"outcome1"`
	Outcome2  string    `json:"outcome2"`
	P1Wins    int       `json:"p1_wins"`
	P2Wins    int       `json:"p2_wins"`
	Draws     int       `json:"draws"`
	Nulls     int       `json:"nulls"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession inserts a new session row and returns it.
func (s *Store) CreateSession(player1, player2 string) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		Player1:   player1,
		Player2:   player2,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, player1, player2, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Player1, sess.Player2, sess.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// GetSession fetches a session by id.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, player1, player2, started_at FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// LatestSession returns the most recently started session.
func (s *Store) LatestSession() (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, player1, player2, started_at FROM sessions
		 ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.Player1, &sess.Player2, &sess.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

// AppendRound inserts a round row for the given session.
func (s *Store) AppendRound(r *Round) error {
	r.CreatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO rounds
		 (session_id, round_num, gesture1, gesture2, outcome1, outcome2,
		  p1_wins, p2_wins, draws, nulls, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.RoundNum, r.Gesture1, r.Gesture2, r.Outcome1, r.Outcome2,
		r.P1Wins, r.P2Wins, r.Draws, r.Nulls, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append round: %w", err)
	}
	r.ID, _ = res.LastInsertId()
	return nil
}

// ListRounds returns all rounds of a session ordered by round number.
func (s *Store) ListRounds(sessionID string) ([]Round, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, round_num, gesture1, gesture2, outcome1, outcome2,
		        p1_wins, p2_wins, draws, nulls, created_at
		 FROM rounds WHERE session_id = ? ORDER BY round_num ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.ID, &r.SessionID, &r.RoundNum,
			&r.Gesture1, &r.Gesture2, &r.Outcome1, &r.Outcome2,
			&r.P1Wins, &r.P2Wins, &r.Draws, &r.Nulls, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
