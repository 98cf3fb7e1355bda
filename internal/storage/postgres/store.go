// Package postgres provides a Postgres-backed row store on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lborges/gamedex/internal/cache"
)

const schema = `CREATE TABLE IF NOT EXISTS metadata_cache (
  cache_key  TEXT PRIMARY KEY,
  payload    JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`

// Store persists cache rows in a Postgres table.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and ensures the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) GetByKey(ctx context.Context, key string) (*cache.Entry, error) {
	var entry cache.Entry
	err := s.pool.QueryRow(
		ctx,
		`SELECT cache_key, payload, updated_at FROM metadata_cache WHERE cache_key = $1`,
		key,
	).Scan(&entry.Key, &entry.Payload, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	return &entry, nil
}

func (s *Store) Upsert(ctx context.Context, entry cache.Entry) error {
	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO metadata_cache (cache_key, payload, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cache_key) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   updated_at = EXCLUDED.updated_at`,
		entry.Key,
		entry.Payload,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(
		ctx,
		`DELETE FROM metadata_cache WHERE cache_key = $1`,
		key,
	); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

var _ cache.Store = (*Store)(nil)
