package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lborges/gamedex/internal/cache"
)

func TestRoundtrip(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping postgres store test")
	}

	ctx := context.Background()
	s, err := Open(ctx, dbURL)
	require.NoError(t, err)
	defer s.Close()

	key := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = s.Delete(ctx, key) })

	_, err = s.GetByKey(ctx, key)
	require.ErrorIs(t, err, cache.ErrNotFound)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Upsert(ctx, cache.Entry{Key: key, Payload: []byte(`{"games":[{"id":1}]}`), UpdatedAt: at}))

	got, err := s.GetByKey(ctx, key)
	require.NoError(t, err)
	require.JSONEq(t, `{"games":[{"id":1}]}`, string(got.Payload))
	require.WithinDuration(t, at, got.UpdatedAt, time.Millisecond)

	require.NoError(t, s.Upsert(ctx, cache.Entry{Key: key, Payload: []byte(`{"games":[{"id":2}]}`), UpdatedAt: at.Add(time.Minute)}))
	got, err = s.GetByKey(ctx, key)
	require.NoError(t, err)
	require.JSONEq(t, `{"games":[{"id":2}]}`, string(got.Payload))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.GetByKey(ctx, key)
	require.ErrorIs(t, err, cache.ErrNotFound)
}
