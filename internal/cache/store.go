package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.GetByKey when no row exists for a key.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is one stored row. Rows are replaced wholesale on every write, never
// mutated in place.
type Entry struct {
	Key       string
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// Store is the persistent row store the cache sits on. Implementations must
// be safe for concurrent use; the cache accepts last-write-wins semantics
// for Upsert. Every method signals infrastructure failure as an error so the
// orchestrator can fail open.
type Store interface {
	// GetByKey returns the row for key, or ErrNotFound.
	GetByKey(ctx context.Context, key string) (*Entry, error)
	// Upsert inserts or replaces the row for entry.Key.
	Upsert(ctx context.Context, entry Entry) error
	// Delete removes the row for key. Deleting a missing row is not an error.
	Delete(ctx context.Context, key string) error
}
