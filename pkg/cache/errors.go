package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrClosed is returned when GetOrCompute is called on a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrNilFetch is returned when GetOrCompute is called without a fetch function.
	ErrNilFetch = errors.New("cache: nil fetch function")

	// ErrKeyDerivation is returned when request arguments cannot be rendered
	// into a canonical cache key.
	ErrKeyDerivation = errors.New("cache: failed to derive cache key")

	// ErrFetchPanic wraps a panic raised by a fetch function. The panic is
	// converted to an error so coalesced waiters are released instead of
	// blocking forever.
	ErrFetchPanic = errors.New("cache: fetch panicked")
)
