// Package store keeps rendered bibliographies in a sqlite database so they
// survive between runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/citemark/internal/log"
)

// ErrNotFound is returned when no entry exists for a cache key.
var ErrNotFound = errors.New("store: entry not found")

// Entry is one rendered bibliography.
type Entry struct {
	CacheKey  string
	File      string
	Markdown  string
	CreatedAt time.Time
}

// Store is a sqlite-backed bibliography store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and brings its
// schema up to date. Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	log.Debug(log.CatStore, "Opening database", "path", path)

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		log.ErrorErr(log.CatStore, "Failed to open database", err, "path", path)
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		log.ErrorErr(log.CatStore, "Failed to ping database", err, "path", path)
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	log.Info(log.CatStore, "Connected to database", "path", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cache_key, file, markdown, created_at FROM bibliographies WHERE cache_key = ?`,
		key,
	).Scan(&e.CacheKey, &e.File, &e.Markdown, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("querying entry: %w", err)
	}
	e.CreatedAt = time.Unix(created, 0)
	return e, nil
}

// Put inserts or replaces an entry. A zero CreatedAt is set to now.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.CacheKey == "" {
		return errors.New("store: empty cache key")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bibliographies (cache_key, file, markdown, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			file = excluded.file,
			markdown = excluded.markdown,
			created_at = excluded.created_at
	`, e.CacheKey, e.File, e.Markdown, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upserting entry: %w", err)
	}
	log.Debug(log.CatStore, "Stored bibliography", "file", e.File, "key", e.CacheKey)
	return nil
}

// Prune deletes entries created before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM bibliographies WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned entries: %w", err)
	}
	if n > 0 {
		log.Info(log.CatStore, "Pruned bibliographies", "count", n)
	}
	return n, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bibliographies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}
