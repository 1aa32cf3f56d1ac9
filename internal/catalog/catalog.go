// Package catalog persists the session index in SQLite: which captures
// ran, where their transcript files live, and how processing went. The
// transcript files themselves stay plain text on disk.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/captiocr/captiocr/internal/errors"
)

// Session statuses.
const (
	StatusActive       = "active"
	StatusStopped      = "stopped"
	StatusDisconnected = "disconnected"
	StatusProcessed    = "processed"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at REAL NOT NULL,
		ended_at REAL,
		language TEXT NOT NULL,
		caption_mode INTEGER NOT NULL DEFAULT 0,
		raw_path TEXT NOT NULL,
		processed_path TEXT,
		raw_blocks INTEGER NOT NULL DEFAULT 0,
		processed_chunks INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active'
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);
`

// Session is one row of the catalog.
type Session struct {
	ID              string
	StartedAt       time.Time
	EndedAt         *time.Time
	Language        string
	CaptionMode     bool
	RawPath         string
	ProcessedPath   string
	RawBlocks       int
	ProcessedChunks int
	Status          string
}

// Store wraps the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog at path with WAL enabled.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageFailed, "create catalog directory")
		}
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "open catalog")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "ping catalog")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "apply catalog schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new active session.
func (s *Store) Create(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, language, caption_mode, raw_path, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, toUnix(sess.StartedAt), sess.Language, boolInt(sess.CaptionMode), sess.RawPath, StatusActive)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "insert session")
	}
	return nil
}

// End marks an active session finished with the given terminal status and
// raw record count. A session already in a terminal status keeps it: a
// Stop racing a disconnect must not rewrite history. Ending an unknown
// session is an error.
func (s *Store) End(ctx context.Context, id, status string, rawBlocks int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, status = ?, raw_blocks = ?
		WHERE id = ? AND status = ?
	`, toUnix(time.Now()), status, rawBlocks, id, StatusActive)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "end session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "rows affected")
	}
	if n > 0 {
		return nil
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.Newf(errors.CodeStorageFailed, "session %s not found", id)
	}
	return nil
}

// MarkProcessed records the processed transcript location and chunk count.
func (s *Store) MarkProcessed(ctx context.Context, id, processedPath string, chunks int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET processed_path = ?, processed_chunks = ?, status = ? WHERE id = ?
	`, processedPath, chunks, StatusProcessed, id)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "mark session processed")
	}
	return requireRow(res, id)
}

// Get returns one session by id, or nil if absent.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "scan session")
	}
	return sess, nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Session, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "query sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageFailed, "scan session")
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

const selectColumns = `
	SELECT id, started_at, ended_at, language, caption_mode,
	       raw_path, processed_path, raw_blocks, processed_chunks, status
	FROM sessions
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var startedAt float64
	var endedAt sql.NullFloat64
	var processedPath sql.NullString
	var captionMode int

	if err := row.Scan(&sess.ID, &startedAt, &endedAt, &sess.Language, &captionMode,
		&sess.RawPath, &processedPath, &sess.RawBlocks, &sess.ProcessedChunks, &sess.Status); err != nil {
		return nil, err
	}
	sess.StartedAt = fromUnix(startedAt)
	sess.CaptionMode = captionMode != 0
	if endedAt.Valid {
		t := fromUnix(endedAt.Float64)
		sess.EndedAt = &t
	}
	if processedPath.Valid {
		sess.ProcessedPath = processedPath.String
	}
	return &sess, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "rows affected")
	}
	if n == 0 {
		return errors.Newf(errors.CodeStorageFailed, "session %s not found", id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000.0
}

func fromUnix(v float64) time.Time {
	return time.UnixMilli(int64(v * 1000)).UTC()
}
