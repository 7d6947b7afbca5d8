package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/agrivisor/agrivisor/pkg/cache"
)

// counter is the repository subset the admin stats endpoint uses.
type counter interface {
	Count(ctx context.Context) (int64, error)
}

// Admin handles the operator surface: platform statistics and cache control.
type Admin struct {
	cache   *cache.Cache[any]
	farmers counter
	farms   counter
	log     *slog.Logger
}

// NewAdmin creates the admin handler.
func NewAdmin(c *cache.Cache[any], farmers, farms counter, log *slog.Logger) *Admin {
	return &Admin{cache: c, farmers: farmers, farms: farms, log: log}
}

type platformStats struct {
	Farmers int64       `json:"farmers"`
	Farms   int64       `json:"farms"`
	Cache   cache.Stats `json:"cache"`
}

// Stats reports farmer/farm counts and the live cache statistics.
func (h *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	farmers, err := h.farmers.Count(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "farmer count failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}

	farms, err := h.farms.Count(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "farm count failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}

	respond(w, http.StatusOK, platformStats{
		Farmers: farmers,
		Farms:   farms,
		Cache:   h.cache.Stats(),
	})
}

type invalidateResponse struct {
	Invalidated int    `json:"invalidated"`
	Pattern     string `json:"pattern,omitempty"`
}

// InvalidateCache drops cached entries. Without a pattern the whole cache is
// cleared; with ?pattern= only entries whose source key contains the pattern.
func (h *Admin) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")

	var n int
	if pattern == "" {
		n = h.cache.InvalidateAll()
	} else {
		n = h.cache.InvalidateMatching(pattern)
	}

	h.log.InfoContext(r.Context(), "cache invalidated",
		slog.Int("entries", n),
		slog.String("pattern", pattern),
	)

	respond(w, http.StatusOK, invalidateResponse{Invalidated: n, Pattern: pattern})
}
