package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultWarmConcurrency bounds parallel warm-up fetches so a long key list
// does not stampede upstream services at startup.
const defaultWarmConcurrency = 8

// WarmEntry pairs a cache request with the fetch that populates it.
type WarmEntry[V any] struct {
	Request Request
	Fetch   FetchFunc[V]
}

// Warm pre-populates the cache by issuing concurrent GetOrCompute calls for
// every entry. A failed entry is recorded and skipped; it never aborts the
// remaining warm-up calls. The returned error joins all individual failures,
// or is nil when every entry warmed successfully.
func Warm[V any](ctx context.Context, c *Cache[V], log *slog.Logger, entries []WarmEntry[V]) error {
	if len(entries) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(defaultWarmConcurrency)

	for _, we := range entries {
		g.Go(func() error {
			if _, err := c.GetOrCompute(ctx, we.Request, we.Fetch); err != nil {
				if log != nil {
					log.Warn("cache warm-up entry failed",
						slog.String("key", we.Request.Key),
						slog.String("error", err.Error()),
					)
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}
