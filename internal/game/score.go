package game

import (
	"errors"

	"github.com/dberml/rpsduel/internal/tracker"
)

// Score is the running tally for a two-player match.
type Score struct {
	Wins  map[string]int
	Draws int
	Nulls int
}

func (s Score) clone() Score {
	wins := make(map[string]int, len(s.Wins))
	for p, w := range s.Wins {
		wins[p] = w
	}
	return Score{Wins: wins, Draws: s.Draws, Nulls: s.Nulls}
}

// RoundRecord is an immutable snapshot of one resolved round: the chosen
// gestures (possibly absent), each player's outcome label, and the score
// as it stood after this round.
type RoundRecord struct {
	Round    int
	Gestures map[string]tracker.Gesture
	Outcome  map[string]string
	Score    Score
}

// Ledger owns the score and the ordered, append-only round history for
// one two-player match.
type Ledger struct {
	player1 string
	player2 string
	score   Score
	history []RoundRecord
}

// NewLedger creates an empty ledger for the two named players.
func NewLedger(player1, player2 string) (*Ledger, error) {
	if player1 == "" || player2 == "" {
		return nil, errors.New("game: both player names are required")
	}
	if player1 == player2 {
		return nil, errors.New("game: players must be distinct")
	}
	return &Ledger{
		player1: player1,
		player2: player2,
		score:   Score{Wins: map[string]int{player1: 0, player2: 0}},
	}, nil
}

// AddRound resolves one gesture pair, updates the score, and appends an
// immutable record. Records are never mutated after creation.
func (l *Ledger) AddRound(g1, g2 tracker.Gesture) RoundRecord {
	outcome := map[string]string{}

	switch Winner(g1, g2) {
	case OutcomeP1:
		l.score.Wins[l.player1]++
		outcome[l.player1] = LabelWinner
		outcome[l.player2] = LabelLoser
	case OutcomeP2:
		l.score.Wins[l.player2]++
		outcome[l.player1] = LabelLoser
		outcome[l.player2] = LabelWinner
	case OutcomeDraw:
		l.score.Draws++
		outcome[l.player1] = LabelDraw
		outcome[l.player2] = LabelDraw
	default:
		l.score.Nulls++
		outcome[l.player1] = LabelNull
		outcome[l.player2] = LabelNull
	}

	record := RoundRecord{
		Round:    len(l.history) + 1,
		Gestures: map[string]tracker.Gesture{l.player1: g1, l.player2: g2},
		Outcome:  outcome,
		Score:    l.score.clone(),
	}
	l.history = append(l.history, record)
	return record
}

// Players returns the two player names in order.
func (l *Ledger) Players() (string, string) {
	return l.player1, l.player2
}

// Score returns a copy of the running tally.
func (l *Ledger) Score() Score {
	return l.score.clone()
}

// History returns the round records in order.
func (l *Ledger) History() []RoundRecord {
	out := make([]RoundRecord, len(l.history))
	copy(out, l.history)
	return out
}

// Rounds returns how many rounds have been recorded.
func (l *Ledger) Rounds() int {
	return len(l.history)
}
