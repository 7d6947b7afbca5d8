package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrivisor/agrivisor/internal/repository"
	"github.com/agrivisor/agrivisor/internal/service/finance"
	"github.com/agrivisor/agrivisor/internal/service/market"
	"github.com/agrivisor/agrivisor/internal/service/recommend"
	"github.com/agrivisor/agrivisor/internal/service/weather"
)

// Advisory handles the read-side advisory endpoints: weather, mandi prices,
// finance schemes and EMI quotes, and crop recommendations.
type Advisory struct {
	weather   *weather.Service
	market    *market.Service
	finance   *finance.Service
	recommend *recommend.Service
	farmers   farmerStore
	farms     farmStore
	log       *slog.Logger
}

// NewAdvisory creates the advisory handler.
func NewAdvisory(
	w *weather.Service,
	m *market.Service,
	f *finance.Service,
	rec *recommend.Service,
	farmers farmerStore,
	farms farmStore,
	log *slog.Logger,
) *Advisory {
	return &Advisory{
		weather:   w,
		market:    m,
		finance:   f,
		recommend: rec,
		farmers:   farmers,
		farms:     farms,
		log:       log,
	}
}

// Weather returns current conditions for a district.
func (h *Advisory) Weather(w http.ResponseWriter, r *http.Request) {
	district := chi.URLParam(r, "district")

	report, err := h.weather.Current(r.Context(), district)
	if err != nil {
		if errors.Is(err, weather.ErrUnknownDistrict) {
			respondError(w, http.StatusNotFound, "district not covered")
			return
		}
		h.advisoryError(w, r, "weather lookup failed", err)
		return
	}

	respond(w, http.StatusOK, report)
}

// MarketPrices returns the mandi price report for a district and commodity.
func (h *Advisory) MarketPrices(w http.ResponseWriter, r *http.Request) {
	district := chi.URLParam(r, "district")
	commodity := chi.URLParam(r, "commodity")
	if district == "" || commodity == "" {
		respondError(w, http.StatusBadRequest, "district and commodity are required")
		return
	}

	report, err := h.market.Prices(r.Context(), district, commodity)
	if err != nil {
		h.advisoryError(w, r, "price lookup failed", err)
		return
	}

	respond(w, http.StatusOK, report)
}

// FinanceSchemes returns the lending scheme catalog.
func (h *Advisory) FinanceSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.finance.Schemes(r.Context())
	if err != nil {
		h.advisoryError(w, r, "scheme lookup failed", err)
		return
	}

	respond(w, http.StatusOK, schemes)
}

type emiRequest struct {
	PrincipalINR  float64 `json:"principal_inr"`
	AnnualRatePct float64 `json:"annual_rate_pct"`
	TenureMonths  int     `json:"tenure_months"`
}

// FinanceEMI computes a repayment quote.
func (h *Advisory) FinanceEMI(w http.ResponseWriter, r *http.Request) {
	var req emiRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	quote, err := h.finance.EMI(req.PrincipalINR, req.AnnualRatePct, req.TenureMonths)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, quote)
}

// Recommend scores one of the caller's farms into a ranked crop list.
// The farmer's registered district drives the weather features; a
// ?district= query overrides it.
func (h *Advisory) Recommend(w http.ResponseWriter, r *http.Request) {
	farm, ok := h.ownedFarmForRecommend(w, r)
	if !ok {
		return
	}

	district := r.URL.Query().Get("district")
	if district == "" {
		farmer, err := h.farmers.GetByID(r.Context(), farm.FarmerID)
		if err != nil {
			h.advisoryError(w, r, "account lookup failed", err)
			return
		}
		district = farmer.District
	}

	rec, err := h.recommend.Recommend(r.Context(), farm, district)
	if err != nil {
		if errors.Is(err, weather.ErrUnknownDistrict) {
			respondError(w, http.StatusUnprocessableEntity, "district not covered; pass ?district= with a covered district")
			return
		}
		h.advisoryError(w, r, "recommendation failed", err)
		return
	}

	respond(w, http.StatusOK, rec)
}

func (h *Advisory) ownedFarmForRecommend(w http.ResponseWriter, r *http.Request) (*repository.Farm, bool) {
	farmHandler := Farm{farms: h.farms, log: h.log}
	return farmHandler.ownedFarm(w, r)
}

// advisoryError maps context cancellation to 503 and everything else to 500.
func (h *Advisory) advisoryError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.ErrorContext(r.Context(), msg, slog.String("error", err.Error()))
	if r.Context().Err() != nil {
		respondError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	respondError(w, http.StatusInternalServerError, msg)
}
