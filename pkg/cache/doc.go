// Package cache provides an in-memory TTL cache with single-flight request
// coalescing, built for the advisory services that front slow or flaky
// upstream data sources.
//
// # Coalescing
//
// Concurrent [Cache.GetOrCompute] calls for the same derived key run the
// fetch exactly once. Every coalesced caller receives the same value or the
// same error; a failed fetch is never cached, so the next call after a
// failure triggers a fresh attempt. This bounds upstream load to one
// in-flight call per key regardless of concurrent demand:
//
//	c := cache.New[PriceReport]()
//	defer c.Close()
//
//	report, err := c.GetOrCompute(ctx, cache.Request{
//	    Key:      "market:Ranchi:rice",
//	    Category: cache.CategoryMarket,
//	}, fetchMandiPrices)
//
// # Keys
//
// The store key is derived deterministically from the request's logical key,
// its ordered positional Args, and its Fields rendered in sorted key order.
// Two logically identical requests built with fields in different insertion
// order always hit the same entry.
//
// # TTLs
//
// Each request declares a data category; [TTLDefaults] maps categories to
// default lifetimes and an unrecognized category falls back to the market
// default. A positive per-request TTL overrides the category default; a
// negative TTL computes the value without retaining it.
//
// # Expiry and maintenance
//
// A stale entry is never returned: lookup evicts it and falls through to the
// miss path. A background sweeper additionally removes expired entries that
// are never looked up again, purely to bound memory. [Cache.InvalidateAll]
// and [Cache.InvalidateMatching] (substring match on the logical key) clear
// entries explicitly, and [Cache.Stats] exposes entry and in-flight counts
// for the admin surface.
//
// # Cancellation
//
// The cache imposes no timeout on fetches. A waiter that cancels its own
// context abandons only its wait; the in-flight fetch and sibling waiters
// are unaffected.
package cache
