package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lborges/gamedex/internal/cache"
)

func TestRoundtrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetByKey(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrNotFound)

	entry := cache.Entry{
		Key:       "k1",
		Payload:   []byte(`{"games":[{"id":1}]}`),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Upsert(ctx, entry))
	require.Equal(t, 1, s.Len())

	got, err := s.GetByKey(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, entry.Payload, got.Payload)
	require.Equal(t, entry.UpdatedAt, got.UpdatedAt)

	// Replacement is wholesale.
	entry.Payload = []byte(`{"games":[{"id":2}]}`)
	require.NoError(t, s.Upsert(ctx, entry))
	got, err = s.GetByKey(ctx, "k1")
	require.NoError(t, err)
	require.JSONEq(t, `{"games":[{"id":2}]}`, string(got.Payload))
	require.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "k1"))
	_, err = s.GetByKey(ctx, "k1")
	require.ErrorIs(t, err, cache.ErrNotFound)

	// Deleting a missing row is fine.
	require.NoError(t, s.Delete(ctx, "k1"))
}

func TestReturnedEntryDoesNotAliasStore(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, cache.Entry{Key: "k", Payload: []byte(`{"a":1}`)}))
	got, err := s.GetByKey(ctx, "k")
	require.NoError(t, err)
	got.Payload[1] = 'X'

	again, err := s.GetByKey(ctx, "k")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(again.Payload))
}
