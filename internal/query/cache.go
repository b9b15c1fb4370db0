package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/medikart/medikart-client/pkg/logger"
	"github.com/medikart/medikart-client/pkg/metrics"
)

// Status is the lifecycle of a cached query.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultFreshness is the window within which a settled successful fetch is
// served from cache without hitting the network again.
const DefaultFreshness = 60 * time.Second

// FetchFunc performs the actual network read for a query key.
type FetchFunc func(ctx context.Context) (any, error)

// Options configures a Cache.
type Options struct {
	Freshness time.Duration
	Logger    *logger.Logger
	Metrics   *metrics.QueryMetrics
	Clock     func() time.Time
}

// Cache is the process-wide store of query outcomes, keyed by query
// identity. Concurrent invocations of the same key share one fetch, and a
// successful result is reused for the freshness window.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	pending map[string]int

	group     singleflight.Group
	freshness time.Duration
	clock     func() time.Time
	logger    *logger.Logger
	metrics   *metrics.QueryMetrics
}

type entry struct {
	value     any
	err       error
	status    Status
	fetchedAt time.Time
}

func NewCache(opts Options) *Cache {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Cache{
		entries:   make(map[string]entry),
		pending:   make(map[string]int),
		freshness: opts.Freshness,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Run returns the cached value for key when it is still fresh, otherwise
// invokes fetch. Only successful settlements are freshness-cached: an
// errored query is recorded for status inspection but the next invocation
// fetches again. A fetch cancelled by ctx leaves the cache untouched.
func (c *Cache) Run(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if value, ok := c.freshValue(key); ok {
		c.metrics.IncCacheHit(key)
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		// A waiter may have refreshed the entry while this call queued.
		if value, ok := c.freshValue(key); ok {
			c.metrics.IncCacheHit(key)
			return value, nil
		}
		return c.fetch(ctx, key, fetch)
	})
	return value, err
}

func (c *Cache) fetch(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.markPending(key, +1)
	defer c.markPending(key, -1)

	c.metrics.IncFetch(key)
	started := c.clock()
	value, err := fetch(ctx)
	c.metrics.ObserveFetchDuration(key, c.clock().Sub(started))

	if ctx.Err() != nil {
		// Torn down before settlement: discard without touching shared
		// state, whatever fetch returned.
		if err == nil {
			err = ctx.Err()
		}
		return nil, err
	}

	if err != nil {
		c.metrics.IncFailure(key)
		if c.logger != nil {
			c.logger.Warn(c.logger.WithQueryKey(ctx, key), "query fetch failed")
		}
		c.store(key, entry{status: StatusError, err: err, fetchedAt: c.clock()})
		return nil, err
	}

	c.store(key, entry{status: StatusSuccess, value: value, fetchedAt: c.clock()})
	return value, nil
}

// Status reports the current lifecycle state for key.
func (c *Cache) Status(key string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pending[key] > 0 {
		return StatusPending
	}
	if e, ok := c.entries[key]; ok {
		return e.status
	}
	return StatusIdle
}

// Peek returns the last successful value for key without fetching.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.status != StatusSuccess {
		return nil, false
	}
	return e.value, true
}

// Err returns the error the last settlement of key carried, if any.
func (c *Cache) Err(key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.status != StatusError {
		return nil
	}
	return e.err
}

// Invalidate drops any recorded outcome for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) freshValue(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.status != StatusSuccess {
		return nil, false
	}
	if c.clock().Sub(e.fetchedAt) >= c.freshness {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

func (c *Cache) markPending(key string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] += delta
	if c.pending[key] <= 0 {
		delete(c.pending, key)
	}
}

// RunTyped adapts Run to a concrete result type.
func RunTyped[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	value, err := c.Run(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return typed, nil
}
