package cache

import (
	"sync"
	"sync/atomic"
)

// Metrics holds the process-wide cache counters. All fields are monotonic
// for the life of the process; Reset exists for test harnesses only.
type Metrics struct {
	Hits                atomic.Uint64
	Misses              atomic.Uint64
	Writes              atomic.Uint64
	Bypasses            atomic.Uint64
	ReadErrors          atomic.Uint64
	StaleServed         atomic.Uint64
	RevalidateScheduled atomic.Uint64
	RevalidateSkipped   atomic.Uint64
	RevalidateFailed    atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the counters, shaped for JSON.
type MetricsSnapshot struct {
	Hits                uint64 `json:"hits"`
	Misses              uint64 `json:"misses"`
	Writes              uint64 `json:"writes"`
	Bypasses            uint64 `json:"bypasses"`
	ReadErrors          uint64 `json:"read_errors"`
	StaleServed         uint64 `json:"stale_served"`
	RevalidateScheduled uint64 `json:"revalidate_scheduled"`
	RevalidateSkipped   uint64 `json:"revalidate_skipped"`
	RevalidateFailed    uint64 `json:"revalidate_failed"`
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:                m.Hits.Load(),
		Misses:              m.Misses.Load(),
		Writes:              m.Writes.Load(),
		Bypasses:            m.Bypasses.Load(),
		ReadErrors:          m.ReadErrors.Load(),
		StaleServed:         m.StaleServed.Load(),
		RevalidateScheduled: m.RevalidateScheduled.Load(),
		RevalidateSkipped:   m.RevalidateSkipped.Load(),
		RevalidateFailed:    m.RevalidateFailed.Load(),
	}
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	m.Hits.Store(0)
	m.Misses.Store(0)
	m.Writes.Store(0)
	m.Bypasses.Store(0)
	m.ReadErrors.Store(0)
	m.StaleServed.Store(0)
	m.RevalidateScheduled.Store(0)
	m.RevalidateSkipped.Store(0)
	m.RevalidateFailed.Store(0)
}

// ticketSet tracks which keys have a revalidation in flight. The mutex is
// what makes TryAcquire an atomic check-and-set: at most one ticket per key
// can exist at any instant.
type ticketSet struct {
	mu      sync.Mutex
	tickets map[string]struct{}
}

func newTicketSet() *ticketSet {
	return &ticketSet{tickets: make(map[string]struct{})}
}

func (t *ticketSet) TryAcquire(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, held := t.tickets[key]; held {
		return false
	}
	t.tickets[key] = struct{}{}
	return true
}

func (t *ticketSet) Release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tickets, key)
}

func (t *ticketSet) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tickets)
}

// Runtime bundles the mutable shared state of one cache instance: counters
// and the revalidation ticket set. It is constructed once by the server
// process and injected into the cache, keeping the state explicit instead of
// package-global.
type Runtime struct {
	Metrics *Metrics
	tickets *ticketSet
}

func NewRuntime() *Runtime {
	return &Runtime{
		Metrics: &Metrics{},
		tickets: newTicketSet(),
	}
}

// TryAcquire registers a revalidation ticket for key, reporting whether the
// caller won it.
func (r *Runtime) TryAcquire(key string) bool {
	return r.tickets.TryAcquire(key)
}

// Release drops the ticket for key. Safe to call for a key without one.
func (r *Runtime) Release(key string) {
	r.tickets.Release(key)
}

// InFlight returns the number of revalidation tickets currently held.
func (r *Runtime) InFlight() int {
	return r.tickets.len()
}

// Reset clears counters and tickets. Test harnesses only.
func (r *Runtime) Reset() {
	r.Metrics.Reset()
	r.tickets.mu.Lock()
	r.tickets.tickets = make(map[string]struct{})
	r.tickets.mu.Unlock()
}
