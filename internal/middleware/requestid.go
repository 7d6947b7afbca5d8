// Package middleware provides the HTTP middleware chain: request IDs, panic
// recovery, CORS, per-request timeouts, and bearer-token authentication.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/agrivisor/agrivisor/pkg/logger"
)

// requestIDKey is the context key for storing the request ID.
type requestIDKey struct{}

// requestIDHeaders are checked in order for an ID set by an upstream proxy.
var requestIDHeaders = []string{"X-Request-ID", "X-Request-Id", "X-Correlation-ID"}

// RequestID returns middleware that assigns a unique request ID to each
// request. An upstream ID is preserved; otherwise a UUID is generated. The
// ID is stored in the request context and echoed in the X-Request-ID
// response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// First match wins to preserve upstream tracing IDs.
			var reqID string
			for _, header := range requestIDHeaders {
				if v := r.Header.Get(header); v != "" {
					reqID = v
					break
				}
			}

			if reqID == "" {
				reqID = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", reqID)

			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// RequestIDExtractor returns a ContextExtractor for use with logger.New.
// Automatically adds "request_id" to all log entries.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(requestIDKey{}).(string); ok && v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
