package middleware

import (
	"log/slog"
	"net/http"
	"runtime"
)

// stackSize bounds the stack trace captured on a panic.
const stackSize = 4096

// Recover returns middleware that recovers from handler panics, logs them
// with a stack trace, and responds with 500. http.ErrAbortHandler is
// re-raised so the server's own abort path keeps working.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					stack := make([]byte, stackSize)
					n := runtime.Stack(stack, false)
					log.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(stack[:n])),
					)

					w.Header().Set("Content-Type", "application/json; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal server error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
