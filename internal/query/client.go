// Package query provides a request-scoped data-fetching client: concurrent
// fetches of the same key share one call and results stay fresh for a stale time.
package query

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/target/webshell/internal/observability/metrics"
)

const (
	// DefaultStaleTime is how long a fetched value is served without refetching.
	DefaultStaleTime = 60 * time.Second
	// DefaultFetchTimeout bounds a single origin call.
	DefaultFetchTimeout = 10 * time.Second
)

// Fetcher loads the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Options configures a Client.
type Options struct {
	StaleTime    time.Duration
	FetchTimeout time.Duration
	Metrics      *metrics.Recorder
}

// Client deduplicates and caches fetches. It is safe for concurrent use.
type Client struct {
	group        singleflight.Group
	cache        *gocache.Cache
	staleTime    time.Duration
	fetchTimeout time.Duration
	metrics      *metrics.Recorder
}

// NewClient creates a Client. Non-positive durations fall back to their defaults.
func NewClient(opts Options) *Client {
	stale := opts.StaleTime
	if stale <= 0 {
		stale = DefaultStaleTime
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Client{
		cache:        gocache.New(stale, 2*stale),
		staleTime:    stale,
		fetchTimeout: timeout,
		metrics:      opts.Metrics,
	}
}

// Fetch returns the cached value for key or calls fn once for all concurrent callers.
// fn runs detached from any single caller's cancellation, bounded by the fetch
// timeout; each caller still stops waiting when its own ctx is done.
// Errors are not cached.
func (c *Client) Fetch(ctx context.Context, key string, fn Fetcher) (any, error) {
	if v, ok := c.cache.Get(key); ok {
		c.metrics.QueryFetch("cache")
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		v, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, v, c.staleTime)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("query %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Shared {
			c.metrics.QueryFetch("shared")
		} else {
			c.metrics.QueryFetch("origin")
		}
		if res.Err != nil {
			return nil, fmt.Errorf("query %s: %w", key, res.Err)
		}
		return res.Val, nil
	}
}

// Invalidate drops key so the next Fetch goes to the origin.
func (c *Client) Invalidate(key string) {
	c.cache.Delete(key)
	c.group.Forget(key)
}

// FetchAs is Fetch with the result asserted to T.
func FetchAs[T any](ctx context.Context, c *Client, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached value has type %T", key, v)
	}
	return out, nil
}

type ctxKey struct{}

// WithClient attaches c to ctx.
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the Client attached to ctx, if any.
func FromContext(ctx context.Context) (*Client, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Client)
	return c, ok && c != nil
}
