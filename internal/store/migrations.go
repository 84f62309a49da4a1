package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per completed workout session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			exercise_type TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			total_reps INTEGER NOT NULL DEFAULT 0,
			total_sets INTEGER NOT NULL DEFAULT 0,
			average_score INTEGER NOT NULL DEFAULT 0,
			top_issues TEXT NOT NULL DEFAULT '[]',
			distribution TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Session sets table - per-set aggregates for a session
		`CREATE TABLE IF NOT EXISTS session_sets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			set_number INTEGER NOT NULL,
			rep_count INTEGER NOT NULL DEFAULT 0,
			average_score INTEGER NOT NULL DEFAULT 0,
			common_issues TEXT NOT NULL DEFAULT '[]',
			start_ms INTEGER NOT NULL DEFAULT 0,
			end_ms INTEGER NOT NULL DEFAULT 0
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_started ON sessions(user_id, started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_session_sets_session_id ON session_sets(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
