// Package sqlite keeps the whole application state in a local SQLite file.
// Cases and the id counter live in one JSON document under the key "cases";
// users and tokens are stored as individual keys.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	_ "modernc.org/sqlite"
)

const busyTimeout = 5000 // milliseconds

type SQLite struct {
	db *sql.DB

	mu    sync.RWMutex
	state *caseState

	cases *caseRepository
	users *userRepository

	now func() time.Time
}

var _ interfaces.Repository = &SQLite{}

type Option func(*SQLite)

// WithClock replaces time.Now, used for seeding and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *SQLite) {
		s.now = now
	}
}

// New opens or creates the database at path and loads the stored cases.
// An empty store is seeded with one example case.
func New(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, busyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	s := &SQLite{
		db:  db,
		now: time.Now,
	}
	s.cases = &caseRepository{store: s}
	s.users = &userRepository{store: s}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return goerr.Wrap(err, "failed to create kv table")
	}
	return nil
}

func (s *SQLite) Case() interfaces.CaseRepository {
	return s.cases
}

func (s *SQLite) User() interfaces.UserRepository {
	return s.users
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// getValue returns false when key does not exist
func (s *SQLite) getValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read key", goerr.V("key", key))
	}
	return value, true, nil
}

func (s *SQLite) putValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return goerr.Wrap(err, "failed to write key", goerr.V("key", key))
	}
	return nil
}

// deleteValue returns false when nothing was deleted
func (s *SQLite) deleteValue(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return false, goerr.Wrap(err, "failed to delete key", goerr.V("key", key))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to get affected rows", goerr.V("key", key))
	}
	return n > 0, nil
}
