package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// checkBudget bounds a readiness pass; a probe must answer well inside the
// kubelet's own timeout.
const checkBudget = 5 * time.Second

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc matches the healthcheck closures exposed by the db and redis
// packages.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its check.
type Checks map[string]CheckFunc

// Response is the JSON body of a readiness probe.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check reports one dependency.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// LivenessHandler answers OK whenever the process is up.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, &Response{Status: StatusHealthy})
	}
}

// ReadinessHandler runs every check in parallel on each request and answers
// 503 when any fails. Failures are logged through log; a nil log discards
// them.
func ReadinessHandler(log *slog.Logger, checks Checks) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := run(r.Context(), log, checks)

		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func run(ctx context.Context, log *slog.Logger, checks Checks) *Response {
	ctx, cancel := context.WithTimeout(ctx, checkBudget)
	defer cancel()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}

	// Each check owns one slot, so no lock is needed around the results.
	results := make([]Check, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Check{Status: StatusHealthy}
			if err := checks[name](ctx); err != nil {
				results[i] = Check{Status: StatusUnhealthy, Error: err.Error()}
				log.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
	wg.Wait()

	resp := &Response{Status: StatusHealthy}
	if len(names) > 0 {
		resp.Checks = make(map[string]Check, len(names))
	}
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i].Status == StatusUnhealthy {
			resp.Status = StatusUnhealthy
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
