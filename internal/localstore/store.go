// Package localstore keeps every expense of the single local user as one JSON
// array under a single key. Each mutation reads the whole array and writes
// it back.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

// Key is where the array lives.
const Key = "@expenses"

type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

var _ expense.Store = (*Store)(nil)

type Option func(*Store)

// WithClock sets the clock used for default dates and new ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens or creates the database file at path and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One writer at a time keeps SQLite from reporting a locked database.
	db.SetMaxOpenConns(1)

	if err := runMigrations(path); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateExpense prepends rec and returns its millisecond id. The session is
// ignored.
func (s *Store) CreateExpense(ctx context.Context, _ expense.Session, rec expense.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	rec = rec.WithDefaults(now)

	var id string

	err := s.mutate(ctx, func(docs []expense.Document) ([]expense.Document, error) {
		id = nextID(docs, now)

		doc := expense.NewDocument(rec)
		doc.ID = id

		return append([]expense.Document{doc}, docs...), nil
	})
	if err != nil {
		return "", fmt.Errorf("creating expense: %w", err)
	}

	return id, nil
}

// ListExpenses returns all records, most recent first.
func (s *Store) ListExpenses(ctx context.Context, _ expense.Session) ([]expense.Record, error) {
	docs, err := s.read(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	records := make([]expense.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.Record(d.ID))
	}

	expense.SortMostRecentFirst(records)

	return records, nil
}

// UpdateExpense merges patch into the stored record with the given id.
func (s *Store) UpdateExpense(ctx context.Context, _ expense.Session, id string, patch expense.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	err := s.mutate(ctx, func(docs []expense.Document) ([]expense.Document, error) {
		i := slices.IndexFunc(docs, func(d expense.Document) bool { return d.ID == id })
		if i < 0 {
			return nil, expense.ErrNotFound
		}

		docs[i] = docs[i].Merge(patch)

		return docs, nil
	})
	if err != nil {
		return fmt.Errorf("updating expense %s: %w", id, err)
	}

	return nil
}

// DeleteExpense removes the record if present.
func (s *Store) DeleteExpense(ctx context.Context, _ expense.Session, id string) error {
	err := s.mutate(ctx, func(docs []expense.Document) ([]expense.Document, error) {
		return slices.DeleteFunc(docs, func(d expense.Document) bool { return d.ID == id }), nil
	})
	if err != nil {
		return fmt.Errorf("deleting expense %s: %w", id, err)
	}

	return nil
}

// Clear removes the stored array.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, Key); err != nil {
		return fmt.Errorf("clearing expenses: %w", err)
	}

	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) read(ctx context.Context, q querier) ([]expense.Document, error) {
	var raw string

	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, Key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", Key, err)
	}

	var docs []expense.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", Key, err)
	}

	return docs, nil
}

// mutate reads the array, applies fn and writes the result back in one
// transaction.
func (s *Store) mutate(ctx context.Context, fn func([]expense.Document) ([]expense.Document, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	docs, err := s.read(ctx, tx)
	if err != nil {
		return err
	}

	docs, err = fn(docs)
	if err != nil {
		return err
	}

	if docs == nil {
		docs = []expense.Document{}
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", Key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, Key, string(raw))
	if err != nil {
		return fmt.Errorf("writing %s: %w", Key, err)
	}

	return tx.Commit()
}

// nextID returns now in Unix milliseconds, bumped past any id already taken.
func nextID(docs []expense.Document, now time.Time) string {
	taken := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		taken[d.ID] = struct{}{}
	}

	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id
		}

		ms++
	}
}
