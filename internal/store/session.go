package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is the journal entry of one painting session. Only counters are
// recorded; strokes are never stored.
type Session struct {
	ID         string     `json:"id"`
	CameraID   int        `json:"camera_id"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Backend    string     `json:"backend"`
	Frames     int64      `json:"frames"`
	HandFrames int64      `json:"hand_frames"`
	Segments   int64      `json:"segments"`
	Selections int64      `json:"selections"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// Duration returns how long the session ran, or has run so far.
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionRepository provides access to the session journal.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. An empty ID is replaced with a random UUID.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.Backend == "" {
		s.Backend = "opencv"
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, camera_id, width, height, backend, frames, hand_frames, segments, selections, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.CameraID, s.Width, s.Height, s.Backend,
		s.Frames, s.HandFrames, s.Segments, s.Selections, s.StartedAt,
	)
	return err
}

// Finish stores the final counters and frame size of a session and marks it ended.
func (r *SessionRepository) Finish(s *Session) error {
	now := time.Now()
	s.EndedAt = &now

	result, err := r.db.Exec(
		`UPDATE sessions SET width = ?, height = ?, frames = ?, hand_frames = ?, segments = ?, selections = ?, ended_at = ?
		 WHERE id = ?`,
		s.Width, s.Height, s.Frames, s.HandFrames, s.Segments, s.Selections, now, s.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

const sessionColumns = `id, camera_id, width, height, backend, frames, hand_frames, segments, selections, started_at, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	s := &Session{}
	var ended sql.NullTime

	err := row.Scan(&s.ID, &s.CameraID, &s.Width, &s.Height, &s.Backend,
		&s.Frames, &s.HandFrames, &s.Segments, &s.Selections, &s.StartedAt, &ended)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns the most recent sessions first. A limit of 0 or less returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session by its ID.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
