// Package sqlite provides a SQLite-backed row store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lborges/gamedex/internal/cache"
)

const schema = `CREATE TABLE IF NOT EXISTS metadata_cache (
  cache_key  TEXT PRIMARY KEY,
  payload    BLOB NOT NULL,
  updated_at INTEGER NOT NULL
)`

// Store persists cache rows in a single SQLite table.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	// modernc.org/sqlite takes pragmas as _pragma=name(value) pairs; the
	// mattn-style _journal_mode=... form is silently ignored by this driver.
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) GetByKey(ctx context.Context, key string) (*cache.Entry, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT cache_key, payload, updated_at FROM metadata_cache WHERE cache_key = ?`,
		key,
	)

	var entry cache.Entry
	var updatedAt int64
	if err := row.Scan(&entry.Key, (*[]byte)(&entry.Payload), &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	entry.UpdatedAt = fromMillis(updatedAt)
	return &entry, nil
}

func (s *Store) Upsert(ctx context.Context, entry cache.Entry) error {
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO metadata_cache (cache_key, payload, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		entry.Key,
		[]byte(entry.Payload),
		toMillis(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM metadata_cache WHERE cache_key = ?`,
		key,
	); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

var _ cache.Store = (*Store)(nil)
