package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skataria/specfuse/internal/cache"
	"github.com/skataria/specfuse/internal/worker"
)

// Client wraps a Provider with the call policy the pipeline relies on:
// per-provider rate limiting, bounded retries with backoff for transient
// failures, and an optional response cache.
//
// The cache key deliberately excludes the run ID: enabling the cache makes
// every run after the first replay run one's answers, which collapses the
// ensemble. It exists to exercise the full pipeline without paying for
// N identical extraction passes, and is off by default.
type Client struct {
	provider Provider
	limiter  *worker.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	retries  int
	backoff  time.Duration
}

// ClientOption configures optional client behavior
type ClientOption func(*Client)

// WithCache enables response caching
func WithCache(c cache.Cache, ttl time.Duration) ClientOption {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithRetries sets the transient-failure retry policy per chunk
func WithRetries(retries int, backoff time.Duration) ClientOption {
	return func(cl *Client) {
		cl.retries = retries
		cl.backoff = backoff
	}
}

// NewClient creates a client around a provider
func NewClient(provider Provider, limiter *worker.Limiter, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		limiter:  limiter,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the underlying provider name
func (c *Client) Name() string {
	return c.provider.Name()
}

// Extract calls the oracle for one chunk, applying rate limiting, caching
// and retries. A failure after all retries is returned to the caller, which
// degrades that chunk to zero candidates rather than failing the task.
func (c *Client) Extract(ctx context.Context, req Request) ([]Candidate, error) {
	key := cache.Key(c.provider.Name(), req.Product, string(req.Source),
		fmt.Sprintf("%d", req.ChunkIndex), req.Text)

	if c.cache != nil {
		if data, found := c.cache.Get(key); found {
			var candidates []Candidate
			if err := json.Unmarshal(data, &candidates); err == nil {
				return candidates, nil
			}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		delay := time.Duration(0)
		if attempt > 0 {
			// Exponential backoff: backoff, 2*backoff, 4*backoff, ...
			delay = c.backoff << (attempt - 1)
		}
		if err := c.limiter.WaitWithDelay(ctx, c.provider.Name(), delay); err != nil {
			return nil, err
		}

		candidates, err := c.provider.Extract(ctx, req)
		if err != nil {
			lastErr = err
			// Per-call timeouts are transient and retried; a cancelled
			// invocation is not.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		if c.cache != nil {
			if data, err := json.Marshal(candidates); err == nil {
				_ = c.cache.Set(key, data, c.cacheTTL)
			}
		}
		return candidates, nil
	}

	return nil, fmt.Errorf("oracle call failed after %d attempts: %w", c.retries+1, lastErr)
}
