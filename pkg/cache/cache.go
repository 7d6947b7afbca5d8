package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry holds a cached value with its lifecycle metadata.
type entry[V any] struct {
	createdAt time.Time
	expiresAt time.Time
	value     V
	sourceKey string
	ttl       time.Duration
}

// FetchFunc computes a value on a cache miss. It is the only operation that
// may block; the cache imposes no timeout of its own, so callers that need
// bounded fetch duration wrap their context or the function itself.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Stats is a point-in-time diagnostic snapshot of the cache.
// Expired counts entries that are logically stale but not yet swept,
// so Active+Expired always equals Total.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
	Pending int `json:"pending"`
}

// Cache is an in-memory TTL cache with single-flight request coalescing.
//
// Concurrent GetOrCompute calls for the same derived key trigger exactly one
// fetch; every coalesced caller receives the same value or the same error.
// Failed fetches are never cached, so the next call after a failure starts a
// fresh attempt. Stale entries are evicted on access and by a background
// sweeper; a stale value is never returned.
type Cache[V any] struct {
	entries  map[string]*entry[V]
	flights  singleflight.Group
	opts     *options
	done     chan struct{}
	mu       sync.Mutex
	inflight int
	closed   bool
}

// New creates a cache and starts its background sweeper unless the sweep
// interval is zero.
//
// Example:
//
//	c := cache.New[MarketReport](
//	    cache.WithTTLDefaults(cache.TTLDefaults{"market": 15 * time.Minute}),
//	    cache.WithSweepInterval(5 * time.Minute),
//	)
//	defer c.Close()
func New[V any](opts ...Option) *Cache[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		opts:    o,
		done:    make(chan struct{}),
	}

	if o.sweepInterval > 0 {
		go c.sweeper()
	}

	return c
}

// GetOrCompute returns the cached value for the request's derived key, or
// computes it with fetch on a miss.
//
// Misses for the same key are coalesced through a singleflight group: the
// first caller's fetch runs once and every concurrent caller shares its
// outcome. Cancelling a waiting caller's context abandons only that caller's
// wait; the in-flight fetch and any sibling waiters are unaffected. The group
// forgets the key before results are delivered, so a caller that retries
// after a failure starts a fresh attempt.
//
// The TTL is resolved from the request: a positive TTL wins, zero falls back
// to the category default, and a negative TTL computes the value without
// retaining it.
func (c *Cache[V]) GetOrCompute(ctx context.Context, req Request, fetch FetchFunc[V]) (V, error) {
	var zero V

	if fetch == nil {
		return zero, ErrNilFetch
	}

	key, err := req.cacheKey()
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}

	// Fast path: valid entry. A stale hit is evicted and falls through to
	// the miss path, so expired values are never observable.
	if e, ok := c.entries[key]; ok {
		if c.opts.clock().Before(e.expiresAt) {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	// The closure runs once per flight, with the initiating caller's context.
	// It stores the entry before returning, so the result a waiter receives is
	// already visible to subsequent lookups.
	ch := c.flights.DoChan(key, func() (any, error) {
		c.noteFlight(1)
		defer c.noteFlight(-1)

		v, err := runFetch(ctx, fetch)
		if err != nil {
			return zero, err
		}

		c.mu.Lock()
		if ttl := c.opts.ttls.Resolve(req.Category, req.TTL); ttl > 0 && !c.closed {
			now := c.opts.clock()
			c.entries[key] = &entry[V]{
				value:     v,
				createdAt: now,
				expiresAt: now.Add(ttl),
				ttl:       ttl,
				sourceKey: req.Key,
			}
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Cache[V]) noteFlight(delta int) {
	c.mu.Lock()
	c.inflight += delta
	c.mu.Unlock()
}

// runFetch invokes fetch, converting a panic into an error so a throwing
// fetch resolves the flight normally instead of re-panicking into every
// coalesced waiter.
func runFetch[V any](ctx context.Context, fetch FetchFunc[V]) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFetchPanic, r)
		}
	}()
	return fetch(ctx)
}

// InvalidateAll removes every entry and returns the number removed.
// In-flight computations are not interrupted.
func (c *Cache[V]) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*entry[V])
	return n
}

// InvalidateMatching removes every entry whose source key contains pattern
// as a substring and returns the number removed. Matching is plain substring
// containment, not a wildcard or regex language.
func (c *Cache[V]) InvalidateMatching(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if strings.Contains(e.sourceKey, pattern) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// SweepExpired removes every expired entry and returns the number removed.
// Lookup already self-heals stale entries on access; sweeping exists to bound
// memory held by entries that are never looked up again.
func (c *Cache[V]) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.clock()
	n := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Stats returns a snapshot of entry and in-flight computation counts.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.clock()
	s := Stats{
		Total:   len(c.entries),
		Pending: c.inflight,
	}
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			s.Active++
		} else {
			s.Expired++
		}
	}
	return s
}

// Close stops the background sweeper and rejects subsequent GetOrCompute
// calls. Close is idempotent. Computations already in flight complete and
// release their waiters, but their results are not stored.
func (c *Cache[V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return nil
}

// sweeper periodically removes expired entries until Close.
// A failed iteration is logged and never stops subsequent sweeps.
func (c *Cache[V]) sweeper() {
	ticker := time.NewTicker(c.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweepOnce()
		}
	}
}

func (c *Cache[V]) sweepOnce() {
	defer func() {
		if r := recover(); r != nil {
			c.opts.log.Error("cache sweep failed", slog.Any("panic", r))
		}
	}()

	if n := c.SweepExpired(); n > 0 {
		c.opts.log.Debug("swept expired cache entries", slog.Int("removed", n))
	}
}
