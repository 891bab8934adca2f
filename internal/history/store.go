// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists chat sessions and their transcripts in SQLite.
// A Session is created by the caller and passed to every operation by ID;
// the store keeps no per-process conversation state.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ottoman-converter/pkg/types"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

const (
	defaultMaxSessions = 20
	titleMaxChars      = 60

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store manages the transcript SQLite database.
type Store struct {
	db          *sql.DB
	maxSessions int
	now         func() time.Time
}

// NewStore opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}

	s := &Store{
		db:          db,
		maxSessions: maxSessions,
		now:         func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			failure_kind TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// CreateSession starts an empty session with a new UUID.
func (s *Store) CreateSession(ctx context.Context) (types.Session, error) {
	now := s.now()
	sess := types.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, created_at, updated_at) VALUES (?, '', ?, ?)`,
		sess.ID, formatTime(now), formatTime(now),
	)
	if err != nil {
		return types.Session{}, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// Append adds messages to the end of a session's transcript in one
// transaction. A zero CreatedAt is set to the current time. The first user
// message also becomes the session title.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...types.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var title string
	err = tx.QueryRowContext(ctx, `SELECT title FROM sessions WHERE id = ?`, sessionID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (session_id, role, content, failure_kind, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, m := range msgs {
		created := m.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx, sessionID, string(m.Role), m.Content, string(m.FailureKind), formatTime(created)); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
		if title == "" && m.Role == types.RoleUser {
			title = shorten(m.Content, titleMaxChars)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`,
		title, formatTime(now), sessionID,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}

	return tx.Commit()
}

// Session returns a session with its full transcript in insertion order.
func (s *Store) Session(ctx context.Context, id string) (types.Session, error) {
	var (
		sess             types.Session
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.Session{}, fmt.Errorf("loading session %s: %w", id, err)
	}
	sess.CreatedAt = parseTime(created)
	sess.UpdatedAt = parseTime(updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, failure_kind, created_at FROM messages WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return types.Session{}, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m                     types.Message
			role, kind, createdAt string
		)
		if err := rows.Scan(&role, &m.Content, &kind, &createdAt); err != nil {
			return types.Session{}, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = types.Role(role)
		m.FailureKind = types.FailureKind(kind)
		m.CreatedAt = parseTime(createdAt)
		sess.Messages = append(sess.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return types.Session{}, fmt.Errorf("iterating messages: %w", err)
	}
	return sess, nil
}

// ListSessions returns sessions without transcripts, most recently updated
// first. A limit of zero uses the store default.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]types.Session, error) {
	if limit <= 0 {
		limit = s.maxSessions
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions ORDER BY updated_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.Session
	for rows.Next() {
		var (
			sess             types.Session
			created, updated string
		)
		if err := rows.Scan(&sess.ID, &sess.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.CreatedAt = parseTime(created)
		sess.UpdatedAt = parseTime(updated)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and its transcript.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// shorten returns the first line of s, cut to n characters with an ellipsis.
func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
