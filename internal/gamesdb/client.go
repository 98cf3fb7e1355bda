// Package gamesdb is the HTTP client for the upstream game-metadata API.
package gamesdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lborges/gamedex/internal/cache"
)

const (
	DefaultBaseURL = "https://api.thegamesdb.net"

	// DefaultTimeout bounds every upstream call. The cache relies on this:
	// a hung fetch would hold a revalidation ticket until it returns.
	DefaultTimeout = 10 * time.Second
)

const searchPath = "/v1/games"

type Client struct {
	http    *http.Client
	baseURL *url.URL
	apiKey  string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(apiKey string, opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: u,
		apiKey:  apiKey,
	}
	for _, o := range opts {
		o(c)
	}
	// An unbounded fetch would hold a revalidation ticket forever, so a
	// client without a timeout gets the default one. Copy so a shared
	// caller-supplied client is left untouched.
	if c.http.Timeout <= 0 {
		bounded := *c.http
		bounded.Timeout = DefaultTimeout
		c.http = &bounded
	}
	return c
}

// Configured reports whether an API key is present. Without one every call
// would be rejected upstream, so callers short-circuit instead.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch performs the search call for a normalized request and returns the
// raw upstream response. Non-2xx statuses are not an error here; the cache
// decides how to propagate them.
func (c *Client) Fetch(ctx context.Context, req cache.Request) (*cache.Response, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, searchPath)
	q := req.Values()
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gamesdb: fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gamesdb: read body: %w", err)
	}

	return &cache.Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}
