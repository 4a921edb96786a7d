// Package session persists play-session snapshots in SQLite.
//
// This package sits outside the core runtime on purpose: the engine
// itself performs no persistence. The CLI (or any other consumer) saves
// and restores GameState snapshots through this store, exchanging them
// with the engine only via the serialize/clone boundary.
package session

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/fabula/internal/state"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no session matches the lookup.
var ErrNotFound = errors.New("session not found")

// Session is one saved playthrough.
type Session struct {
	ID         string
	Name       string
	StoryTitle string
	State      *state.GameState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IDGenerator produces session ids. Implemented by UUIDv7Generator
// (production) and any fixed generator a test supplies.
type IDGenerator interface {
	Generate() string
}

// Store provides durable storage for session snapshots.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db  *sql.DB
	ids IDGenerator
}

// Open creates or opens a SQLite database at the given path and applies
// pragmas and schema. Idempotent: safe to call on an existing database.
func Open(path string, ids IDGenerator) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect session db: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under interleaved saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply session schema: %w", err)
	}

	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Store{db: db, ids: ids}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a session snapshot by name and returns the stored
// session. A new name gets a fresh id; an existing name keeps its id
// and creation time.
func (s *Store) Save(ctx context.Context, name, storyTitle string, st *state.GameState) (*Session, error) {
	snapshot, err := state.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("save session %q: %w", name, err)
	}
	now := time.Now().UnixMilli()

	existing, err := s.LoadByName(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		sess := &Session{
			ID:         s.ids.Generate(),
			Name:       name,
			StoryTitle: storyTitle,
			State:      st.Clone(),
			CreatedAt:  time.UnixMilli(now),
			UpdatedAt:  time.UnixMilli(now),
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO sessions (id, name, story_title, snapshot, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sess.ID, name, storyTitle, string(snapshot), now, now)
		if err != nil {
			return nil, fmt.Errorf("save session %q: %w", name, err)
		}
		return sess, nil
	case err != nil:
		return nil, err
	default:
		_, err = s.db.ExecContext(ctx, `
			UPDATE sessions SET story_title = ?, snapshot = ?, updated_at = ? WHERE id = ?
		`, storyTitle, string(snapshot), now, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("save session %q: %w", name, err)
		}
		existing.StoryTitle = storyTitle
		existing.State = st.Clone()
		existing.UpdatedAt = time.UnixMilli(now)
		return existing, nil
	}
}

// LoadByName returns the session saved under a name, or ErrNotFound.
func (s *Store) LoadByName(ctx context.Context, name string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, story_title, snapshot, created_at, updated_at
		FROM sessions WHERE name = ?
	`, name)
	return scanSession(row)
}

// Load returns the session with the given id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, story_title, snapshot, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

// List returns all sessions ordered by most recent update.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, story_title, snapshot, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Delete removes a session by name. Deleting a missing session returns
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess      Session
		snapshot  string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&sess.ID, &sess.Name, &sess.StoryTitle, &snapshot, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	st, err := state.Unmarshal([]byte(snapshot))
	if err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	sess.State = st
	sess.CreatedAt = time.UnixMilli(createdAt)
	sess.UpdatedAt = time.UnixMilli(updatedAt)
	return &sess, nil
}
