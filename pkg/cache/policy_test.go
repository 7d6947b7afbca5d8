package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrivisor/agrivisor/pkg/cache"
)

func TestTTLDefaultsResolve(t *testing.T) {
	t.Parallel()

	ttls := cache.TTLDefaults{
		cache.CategoryMarket:  15 * time.Minute,
		cache.CategoryWeather: time.Hour,
	}

	t.Run("positive override wins", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, time.Minute, ttls.Resolve(cache.CategoryWeather, time.Minute))
	})

	t.Run("zero uses the category default", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, time.Hour, ttls.Resolve(cache.CategoryWeather, 0))
	})

	t.Run("unknown category falls back to market", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, 15*time.Minute, ttls.Resolve("satellite", 0))
	})

	t.Run("negative override passes through", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, -time.Second, ttls.Resolve(cache.CategoryMarket, -time.Second))
	})

	t.Run("empty defaults still resolve", func(t *testing.T) {
		t.Parallel()
		require.Positive(t, cache.TTLDefaults{}.Resolve("anything", 0))
	})
}
