package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per painting session, statistics only
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			camera_id INTEGER NOT NULL,
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			backend TEXT NOT NULL DEFAULT 'opencv',
			frames INTEGER NOT NULL DEFAULT 0,
			hand_frames INTEGER NOT NULL DEFAULT 0,
			segments INTEGER NOT NULL DEFAULT 0,
			selections INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
