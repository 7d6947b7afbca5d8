package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agrivisor/agrivisor/internal/repository"
	"github.com/agrivisor/agrivisor/pkg/sanitizer"
)

// farmStore is the subset of the farm repository the farm handler uses.
type farmStore interface {
	Create(ctx context.Context, f *repository.Farm) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Farm, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]repository.Farm, error)
	Update(ctx context.Context, f *repository.Farm) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Farm handles the caller's farm records.
type Farm struct {
	farms farmStore
	log   *slog.Logger
}

// NewFarm creates the farm handler.
func NewFarm(farms farmStore, log *slog.Logger) *Farm {
	return &Farm{farms: farms, log: log}
}

type farmRequest struct {
	Name         string  `json:"name"`
	AreaHectares float64 `json:"area_hectares"`
	SoilType     string  `json:"soil_type"`
	Irrigation   string  `json:"irrigation"`
	Nitrogen     float64 `json:"nitrogen"`
	Phosphorus   float64 `json:"phosphorus"`
	Potassium    float64 `json:"potassium"`
	SoilPH       float64 `json:"soil_ph"`
	Notes        string  `json:"notes"`
}

func (req *farmRequest) validate() string {
	switch {
	case sanitizer.PlainText(req.Name) == "":
		return "farm name is required"
	case req.AreaHectares <= 0:
		return "area must be positive"
	case req.SoilPH < 0 || req.SoilPH > 14:
		return "soil pH must be between 0 and 14"
	case req.Nitrogen < 0 || req.Phosphorus < 0 || req.Potassium < 0:
		return "soil nutrient values must be non-negative"
	}
	return ""
}

func (req *farmRequest) apply(f *repository.Farm) {
	f.Name = sanitizer.PlainText(req.Name)
	f.AreaHectares = req.AreaHectares
	f.SoilType = sanitizer.PlainText(req.SoilType)
	f.Irrigation = sanitizer.PlainText(req.Irrigation)
	f.Nitrogen = req.Nitrogen
	f.Phosphorus = req.Phosphorus
	f.Potassium = req.Potassium
	f.SoilPH = req.SoilPH
	f.Notes = sanitizer.SafeHTML(req.Notes)
}

// Create adds a farm for the caller.
func (h *Farm) Create(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req farmRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	farm := &repository.Farm{ID: uuid.New(), FarmerID: farmerID}
	req.apply(farm)

	if err := h.farms.Create(r.Context(), farm); err != nil {
		h.log.ErrorContext(r.Context(), "farm create failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "farm create failed")
		return
	}

	respond(w, http.StatusCreated, farm)
}

// List returns all farms owned by the caller.
func (h *Farm) List(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := callerID(w, r)
	if !ok {
		return
	}

	farms, err := h.farms.ListByFarmer(r.Context(), farmerID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "farm list failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "farm list failed")
		return
	}

	respond(w, http.StatusOK, farms)
}

// Get returns one of the caller's farms by ID.
func (h *Farm) Get(w http.ResponseWriter, r *http.Request) {
	farm, ok := h.ownedFarm(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, farm)
}

// Update replaces the soil profile and details of one of the caller's farms.
func (h *Farm) Update(w http.ResponseWriter, r *http.Request) {
	farm, ok := h.ownedFarm(w, r)
	if !ok {
		return
	}

	var req farmRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	req.apply(farm)

	if err := h.farms.Update(r.Context(), farm); err != nil {
		h.log.ErrorContext(r.Context(), "farm update failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "farm update failed")
		return
	}

	respond(w, http.StatusOK, farm)
}

// Delete removes one of the caller's farms.
func (h *Farm) Delete(w http.ResponseWriter, r *http.Request) {
	farm, ok := h.ownedFarm(w, r)
	if !ok {
		return
	}

	if err := h.farms.Delete(r.Context(), farm.ID); err != nil {
		h.log.ErrorContext(r.Context(), "farm delete failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "farm delete failed")
		return
	}

	respond(w, http.StatusNoContent, nil)
}

// ownedFarm loads the farm from the URL and verifies the caller owns it.
// Foreign farms read as 404 so farm IDs are not probeable.
func (h *Farm) ownedFarm(w http.ResponseWriter, r *http.Request) (*repository.Farm, bool) {
	farmerID, ok := callerID(w, r)
	if !ok {
		return nil, false
	}

	farmID, err := uuid.Parse(chi.URLParam(r, "farmID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid farm id")
		return nil, false
	}

	farm, err := h.farms.GetByID(r.Context(), farmID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "farm not found")
			return nil, false
		}
		h.log.ErrorContext(r.Context(), "farm lookup failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "farm lookup failed")
		return nil, false
	}

	if farm.FarmerID != farmerID {
		respondError(w, http.StatusNotFound, "farm not found")
		return nil, false
	}

	return farm, true
}
