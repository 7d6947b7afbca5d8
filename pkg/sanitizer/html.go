// Package sanitizer cleans farmer-supplied free text before it is stored.
// Farm notes and advisory feedback end up rendered in the dashboard, so all
// markup is either stripped or reduced to a small safe subset.
package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// Strips all HTML, leaving plain text.
		strictPolicy = bluemonday.StrictPolicy()

		// Basic formatting for longer advisory notes.
		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)
	})
}

// PlainText strips all HTML from s and trims surrounding whitespace.
// Use for single-line fields such as names and crop labels.
func PlainText(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SafeHTML reduces s to a small safe formatting subset (paragraphs, lists,
// emphasis, nofollow links). Use for multi-line notes.
func SafeHTML(s string) string {
	initPolicies()
	return safePolicy.Sanitize(s)
}
