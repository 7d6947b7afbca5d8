package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrivisor/agrivisor/pkg/cache"
	"github.com/agrivisor/agrivisor/pkg/logger"
)

func TestService_Prices(t *testing.T) {
	t.Parallel()

	t.Run("serves from feed and caches", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			require.Equal(t, "Ranchi", r.URL.Query().Get("district"))
			require.Equal(t, "rice", r.URL.Query().Get("commodity"))
			_, _ = w.Write([]byte(`{"mandi":"Pandra Bazar","min_price":2400,"max_price":2650,"modal_price":2500}`))
		}))
		defer srv.Close()

		c := cache.New[any](cache.WithSweepInterval(0))
		defer c.Close()
		svc := NewService(c, srv.Client(), srv.URL, logger.NewNope())

		report, err := svc.Prices(context.Background(), "Ranchi", "Rice")
		require.NoError(t, err)
		require.Equal(t, SourceFeed, report.Source)
		require.Equal(t, "Pandra Bazar", report.Mandi)
		require.InDelta(t, 2500, report.ModalPrice, 0.01)
		require.Equal(t, "rice", report.Commodity, "commodity is normalized")

		_, err = svc.Prices(context.Background(), "Ranchi", "rice")
		require.NoError(t, err)
		require.Equal(t, int32(1), hits.Load(), "second read must be a cache hit")
	})

	t.Run("fallback when no feed configured", func(t *testing.T) {
		t.Parallel()

		c := cache.New[any](cache.WithSweepInterval(0))
		defer c.Close()
		svc := NewService(c, nil, "", logger.NewNope())

		report, err := svc.Prices(context.Background(), "Bokaro", "wheat")
		require.NoError(t, err)
		require.Equal(t, SourceFallback, report.Source)
		require.Greater(t, report.ModalPrice, 0.0)
		require.Less(t, report.MinPrice, report.MaxPrice)
	})

	t.Run("fallback when feed errors", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := cache.New[any](cache.WithSweepInterval(0))
		defer c.Close()
		svc := NewService(c, srv.Client(), srv.URL, logger.NewNope())

		report, err := svc.Prices(context.Background(), "Dumka", "maize")
		require.NoError(t, err)
		require.Equal(t, SourceFallback, report.Source)
	})

	t.Run("empty commodity is rejected", func(t *testing.T) {
		t.Parallel()

		c := cache.New[any](cache.WithSweepInterval(0))
		defer c.Close()
		svc := NewService(c, nil, "", logger.NewNope())

		_, err := svc.Prices(context.Background(), "Ranchi", "  ")
		require.Error(t, err)
	})
}

func TestService_Invalidate(t *testing.T) {
	t.Parallel()

	c := cache.New[any](cache.WithSweepInterval(0))
	defer c.Close()
	svc := NewService(c, nil, "", logger.NewNope())

	_, err := svc.Prices(context.Background(), "Ranchi", "rice")
	require.NoError(t, err)
	_, err = svc.Prices(context.Background(), "Bokaro", "wheat")
	require.NoError(t, err)

	require.Equal(t, 2, svc.Invalidate())
	require.Zero(t, c.Stats().Total)
}

func TestFallbackPrices_Deterministic(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	a := fallbackPrices("Ranchi", "rice", day)
	b := fallbackPrices("Ranchi", "rice", day)
	require.Equal(t, a.ModalPrice, b.ModalPrice)

	// Unknown commodities settle on the generic rate band.
	c := fallbackPrices("Ranchi", "dragonfruit", day)
	require.InDelta(t, genericBasePrice, c.ModalPrice, genericBasePrice*0.06)
}
