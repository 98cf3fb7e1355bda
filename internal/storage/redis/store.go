// Package redis provides a Redis-backed row store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lborges/gamedex/internal/cache"
)

const keyPrefix = "gamedex:cache:"

// row is the stored JSON shape. UpdatedAt travels as RFC3339 text; a value
// that fails to parse comes back as the zero time, which the freshness
// classifier treats as expired.
type row struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt string          `json:"updated_at"`
}

type Store struct {
	client *goredis.Client
}

// Open connects to a Redis instance and verifies it responds.
func Open(ctx context.Context, addr string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) GetByKey(ctx context.Context, key string) (*cache.Entry, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}

	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	entry := &cache.Entry{Key: key, Payload: r.Payload}
	if t, err := time.Parse(time.RFC3339Nano, r.UpdatedAt); err == nil {
		entry.UpdatedAt = t
	}
	return entry, nil
}

func (s *Store) Upsert(ctx context.Context, entry cache.Entry) error {
	data, err := json.Marshal(row{
		Payload:   entry.Payload,
		UpdatedAt: entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+entry.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

var _ cache.Store = (*Store)(nil)
