// Package memory provides an in-memory row store, used in tests and for
// running without any persistence backend.
package memory

import (
	"context"
	"sync"

	"github.com/lborges/gamedex/internal/cache"
)

type Store struct {
	mu   sync.RWMutex
	rows map[string]cache.Entry
}

func New() *Store {
	return &Store{rows: make(map[string]cache.Entry)}
}

func (s *Store) GetByKey(ctx context.Context, key string) (*cache.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	// Copy so callers never alias the stored row.
	out := row
	out.Payload = append([]byte(nil), row.Payload...)
	return &out, nil
}

func (s *Store) Upsert(ctx context.Context, entry cache.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Payload = append([]byte(nil), entry.Payload...)
	s.rows[entry.Key] = entry
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
	return nil
}

// Len reports the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

var _ cache.Store = (*Store)(nil)
