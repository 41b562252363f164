package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per match
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			player1 TEXT NOT NULL,
			player2 TEXT NOT NULL,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Rounds table - one row per resolved round, score snapshot included
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			round_num INTEGER NOT NULL,
			gesture1 TEXT NOT NULL DEFAULT '',
			gesture2 TEXT NOT NULL DEFAULT '',
			outcome1 TEXT NOT NULL,
			outcome2 TEXT NOT NULL,
			p1_wins INTEGER NOT NULL,
			p2_wins INTEGER NOT NULL,
			draws INTEGER NOT NULL,
			nulls INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(session_id, round_num)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_rounds_session_id ON rounds(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
