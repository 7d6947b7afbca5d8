package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// corsMaxAge is how long browsers may cache a preflight answer.
const corsMaxAge = 12 * time.Hour

var (
	corsAllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	corsAllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
)

// CORS returns middleware that handles Cross-Origin Resource Sharing for
// the given origins (CORS_ALLOWED_ORIGINS in config). No origins means
// wildcard. It answers preflight (OPTIONS) requests and adds CORS headers
// to all responses.
func CORS(allowedOrigins ...string) func(http.Handler) http.Handler {
	wildcard := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")

	allowMethodsStr := strings.Join(corsAllowMethods, ", ")
	allowHeadersStr := strings.Join(corsAllowHeaders, ", ")
	maxAgeStr := strconv.Itoa(int(corsMaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Not a CORS request.
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !wildcard && !slices.Contains(allowedOrigins, origin) {
				// No CORS headers; the browser blocks the response.
				next.ServeHTTP(w, r)
				return
			}

			headers := w.Header()
			headers.Add("Vary", "Origin")

			if wildcard {
				headers.Set("Access-Control-Allow-Origin", "*")
			} else {
				headers.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions {
				headers.Add("Vary", "Access-Control-Request-Method")
				headers.Add("Vary", "Access-Control-Request-Headers")

				headers.Set("Access-Control-Allow-Methods", allowMethodsStr)
				headers.Set("Access-Control-Allow-Headers", allowHeadersStr)
				headers.Set("Access-Control-Max-Age", maxAgeStr)

				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
