package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agrivisor/agrivisor/pkg/sanitizer"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Ranchi Farm", sanitizer.PlainText("  <b>Ranchi</b> Farm  "))
	require.Equal(t, "alert(1)", sanitizer.PlainText("<script>alert(1)</script>"))
	require.Equal(t, "", sanitizer.PlainText("<img src=x onerror=alert(1)>"))
}

func TestSafeHTML(t *testing.T) {
	t.Parallel()

	out := sanitizer.SafeHTML(`<p>Sowed <strong>paddy</strong></p><script>steal()</script>`)
	require.Equal(t, "<p>Sowed <strong>paddy</strong></p>", out)

	out = sanitizer.SafeHTML(`<a href="https://example.com" onclick="x()">soil report</a>`)
	require.Contains(t, out, `href="https://example.com"`)
	require.NotContains(t, out, "onclick")
	require.Contains(t, out, `rel="nofollow"`)
}
