// Package cache implements the freshness-aware response cache that sits
// between the API surface and the upstream game-metadata provider. Stored
// rows are served while fresh, served-and-revalidated while stale, and
// refetched once expired; at most one background revalidation runs per key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status is the cache disposition of one request, surfaced to clients.
type Status string

const (
	StatusMiss  Status = "MISS"
	StatusFresh Status = "HIT_FRESH"
	StatusStale Status = "HIT_STALE"
	// StatusBypass marks requests that never touched the store: queries too
	// short to key, or requests served around an unavailable store.
	StatusBypass Status = "BYPASS"
)

// Revalidation markers attached to HIT_STALE responses.
const (
	RevalidateScheduled = "scheduled"
	RevalidateSkipped   = "skipped"
)

// Response is what the upstream fetcher hands back: the raw status, headers
// and body of the provider call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher performs the outbound call to the metadata provider. The fetcher
// must enforce its own timeout: a revalidation ticket is only released when
// the underlying call returns, so an unbounded fetch would starve that key's
// future refreshes.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// Result is the cache's answer to one request.
type Result struct {
	Status     int
	Header     http.Header
	Body       []byte
	Cache      Status
	Revalidate string
}

// Options configures a Cache.
type Options struct {
	Store    Store
	Fetcher  Fetcher
	Runtime  *Runtime
	Runner   Runner
	FreshTTL time.Duration
	StaleTTL time.Duration
	Logger   zerolog.Logger
}

// Cache is the request-path orchestrator.
type Cache struct {
	store    Store
	fetcher  Fetcher
	runtime  *Runtime
	runner   Runner
	freshTTL time.Duration
	staleTTL time.Duration
	logger   zerolog.Logger

	now func() time.Time
}

func New(opts Options) *Cache {
	if opts.Runtime == nil {
		opts.Runtime = NewRuntime()
	}
	if opts.Runner == nil {
		opts.Runner = GoRunner{}
	}
	return &Cache{
		store:    opts.Store,
		fetcher:  opts.Fetcher,
		runtime:  opts.Runtime,
		runner:   opts.Runner,
		freshTTL: opts.FreshTTL,
		staleTTL: opts.StaleTTL,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Runtime exposes the cache's counters and tickets.
func (c *Cache) Runtime() *Runtime { return c.runtime }

// Serve answers one request from the store or the upstream. The only errors
// it returns are upstream failures on the bypass and miss paths, where there
// is no cached data to fall open onto; every store failure is absorbed,
// counted and logged.
func (c *Cache) Serve(ctx context.Context, req Request) (*Result, error) {
	if !req.Cacheable() {
		c.runtime.Metrics.Bypasses.Add(1)
		return c.fetchDirect(ctx, req)
	}

	key := req.Key()
	entry, err := c.store.GetByKey(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		// Store unavailable: serve around it, and do not attempt a write-back.
		c.runtime.Metrics.ReadErrors.Add(1)
		c.runtime.Metrics.Bypasses.Add(1)
		c.logger.Warn().Err(err).Str("key", key).Msg("store read failed, bypassing cache")
		return c.fetchDirect(ctx, req)
	}

	if err == nil {
		if !CacheablePayload(entry.Payload) {
			// Corrupt or empty stored row: self-heal and treat as a miss.
			if derr := c.store.Delete(ctx, key); derr != nil {
				c.logger.Warn().Err(derr).Str("key", key).Msg("delete of invalid entry failed")
			}
		} else {
			switch Classify(entry.UpdatedAt, c.now(), c.freshTTL, c.staleTTL) {
			case Fresh:
				c.runtime.Metrics.Hits.Add(1)
				return storedResult(entry, StatusFresh, ""), nil
			case Stale:
				c.runtime.Metrics.Hits.Add(1)
				c.runtime.Metrics.StaleServed.Add(1)
				marker := c.scheduleRevalidation(key, req)
				return storedResult(entry, StatusStale, marker), nil
			case Expired:
				// fall through to the miss path
			}
		}
	}

	return c.fetchAndStore(ctx, key, req)
}

// fetchDirect serves a request straight from upstream without touching the
// store. A fetch error propagates: there is no cache to fall back to here.
func (c *Cache) fetchDirect(ctx context.Context, req Request) (*Result, error) {
	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Result{
		Status: resp.Status,
		Header: stripTransportHeaders(resp.Header),
		Body:   resp.Body,
		Cache:  StatusBypass,
	}, nil
}

// fetchAndStore is the miss path: fetch, validate, best-effort persist.
func (c *Cache) fetchAndStore(ctx context.Context, key string, req Request) (*Result, error) {
	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		c.runtime.Metrics.Misses.Add(1)
		return nil, err
	}

	result := &Result{
		Status: resp.Status,
		Header: stripTransportHeaders(resp.Header),
		Body:   resp.Body,
		Cache:  StatusMiss,
	}

	c.runtime.Metrics.Misses.Add(1)
	if resp.Status < 200 || resp.Status >= 300 {
		// Upstream failure passes through verbatim and is never persisted.
		return result, nil
	}
	if !json.Valid(resp.Body) {
		c.logger.Warn().Str("key", key).Msg("upstream returned unparsable body, not caching")
		return result, nil
	}
	if CacheablePayload(resp.Body) {
		entry := Entry{Key: key, Payload: resp.Body, UpdatedAt: c.now()}
		if werr := c.store.Upsert(ctx, entry); werr != nil {
			c.logger.Warn().Err(werr).Str("key", key).Msg("store write failed")
		} else {
			c.runtime.Metrics.Writes.Add(1)
		}
	}
	return result, nil
}

// scheduleRevalidation hands a background refresh for key to the runner if no
// ticket is held yet, and returns the marker for the response.
func (c *Cache) scheduleRevalidation(key string, req Request) string {
	if !c.runtime.TryAcquire(key) {
		c.runtime.Metrics.RevalidateSkipped.Add(1)
		return RevalidateSkipped
	}
	c.runtime.Metrics.RevalidateScheduled.Add(1)
	task := uuid.NewString()
	c.runner.Run(func() { c.revalidate(task, key, req) })
	return RevalidateScheduled
}

// revalidate refreshes one stale row. Any failure leaves the existing row in
// place so future requests keep serving it stale; the ticket is released
// unconditionally, since a leaked ticket would permanently starve this key's
// refreshes.
func (c *Cache) revalidate(task, key string, req Request) {
	defer c.runtime.Release(key)

	logger := c.logger.With().Str("task", task).Str("key", key).Logger()

	// Detached from the request that scheduled this; the fetcher's own
	// timeout bounds the call.
	resp, err := c.fetcher.Fetch(context.Background(), req)
	if err != nil {
		c.runtime.Metrics.RevalidateFailed.Add(1)
		logger.Warn().Err(err).Msg("revalidation fetch failed")
		return
	}
	if resp.Status < 200 || resp.Status >= 300 {
		c.runtime.Metrics.RevalidateFailed.Add(1)
		logger.Warn().Int("status", resp.Status).Msg("revalidation got upstream error")
		return
	}
	if !CacheablePayload(resp.Body) {
		c.runtime.Metrics.RevalidateFailed.Add(1)
		logger.Debug().Msg("revalidation payload not cacheable, keeping stale row")
		return
	}

	entry := Entry{Key: key, Payload: resp.Body, UpdatedAt: c.now()}
	if err := c.store.Upsert(context.Background(), entry); err != nil {
		c.runtime.Metrics.RevalidateFailed.Add(1)
		logger.Warn().Err(err).Msg("revalidation write failed")
		return
	}
	c.runtime.Metrics.Writes.Add(1)
	logger.Debug().Msg("revalidated")
}

func storedResult(entry *Entry, status Status, marker string) *Result {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &Result{
		Status:     http.StatusOK,
		Header:     header,
		Body:       entry.Payload,
		Cache:      status,
		Revalidate: marker,
	}
}

// stripTransportHeaders drops headers describing the upstream's transport
// encoding. Forwarded bodies are re-serialized, so a stale Content-Encoding
// or Content-Length from upstream must never reach the client.
func stripTransportHeaders(h http.Header) http.Header {
	out := http.Header{}
	for k, vs := range h {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	out.Del("Content-Encoding")
	out.Del("Content-Length")
	return out
}
