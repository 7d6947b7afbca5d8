package id_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrivisor/agrivisor/pkg/id"
)

func TestNewCode(t *testing.T) {
	t.Parallel()

	t.Run("format", func(t *testing.T) {
		t.Parallel()

		code := id.NewCode()
		require.Len(t, code, 16)
		for _, c := range code {
			require.Contains(t, "0123456789ABCDEFGHJKMNPQRSTVWXYZ", string(c))
		}
		require.NotContains(t, code, "I")
		require.NotContains(t, code, "L")
	})

	t.Run("uniqueness", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]bool)
		for range 1000 {
			code := id.NewCode()
			require.False(t, seen[code], "duplicate code %s", code)
			seen[code] = true
		}
	})

	t.Run("sortable across time", func(t *testing.T) {
		t.Parallel()

		a := id.NewCode()
		time.Sleep(2 * time.Millisecond)
		b := id.NewCode()
		require.True(t, strings.Compare(a[:6], b[:6]) <= 0)
	})
}
