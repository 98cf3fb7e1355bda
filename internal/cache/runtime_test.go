package cache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTicketSingleWinner(t *testing.T) {
	rt := NewRuntime()

	const n = 64
	var won atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rt.TryAcquire("key-1") {
				won.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), won.Load())
	require.Equal(t, 1, rt.InFlight())
}

func TestTicketReleaseAllowsReacquire(t *testing.T) {
	rt := NewRuntime()

	require.True(t, rt.TryAcquire("k"))
	require.False(t, rt.TryAcquire("k"))
	rt.Release("k")
	require.True(t, rt.TryAcquire("k"))

	// Independent keys do not contend.
	require.True(t, rt.TryAcquire("other"))
}

func TestReleaseWithoutTicketIsHarmless(t *testing.T) {
	rt := NewRuntime()
	rt.Release("never-acquired")
	require.Equal(t, 0, rt.InFlight())
}

func TestMetricsSnapshotAndReset(t *testing.T) {
	rt := NewRuntime()
	rt.Metrics.Hits.Add(3)
	rt.Metrics.StaleServed.Add(1)
	rt.Metrics.RevalidateFailed.Add(2)
	require.True(t, rt.TryAcquire("k"))

	snap := rt.Metrics.Snapshot()
	require.Equal(t, uint64(3), snap.Hits)
	require.Equal(t, uint64(1), snap.StaleServed)
	require.Equal(t, uint64(2), snap.RevalidateFailed)
	require.Equal(t, uint64(0), snap.Misses)

	rt.Reset()
	require.Equal(t, MetricsSnapshot{}, rt.Metrics.Snapshot())
	require.Equal(t, 0, rt.InFlight())
}
