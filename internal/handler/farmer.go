package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/agrivisor/agrivisor/internal/middleware"
	"github.com/agrivisor/agrivisor/internal/repository"
	"github.com/agrivisor/agrivisor/pkg/sanitizer"
)

// Farmer handles the authenticated farmer's own profile.
type Farmer struct {
	farmers farmerStore
	log     *slog.Logger
}

// NewFarmer creates the farmer profile handler.
func NewFarmer(farmers farmerStore, log *slog.Logger) *Farmer {
	return &Farmer{farmers: farmers, log: log}
}

// callerID resolves the authenticated farmer ID from the request context.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	farmerID, err := claims.FarmerID()
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token subject")
		return uuid.Nil, false
	}
	return farmerID, true
}

// Profile returns the caller's account record.
func (h *Farmer) Profile(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := callerID(w, r)
	if !ok {
		return
	}

	farmer, err := h.farmers.GetByID(r.Context(), farmerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		h.log.ErrorContext(r.Context(), "profile lookup failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	respond(w, http.StatusOK, farmer)
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	District string `json:"district"`
	State    string `json:"state"`
}

// UpdateProfile changes the caller's name, district, or state. Empty fields
// keep their current values.
func (h *Farmer) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	farmer, err := h.farmers.GetByID(r.Context(), farmerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		h.log.ErrorContext(r.Context(), "profile lookup failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "profile update failed")
		return
	}

	if v := sanitizer.PlainText(req.Name); v != "" {
		farmer.Name = v
	}
	if v := sanitizer.PlainText(req.District); v != "" {
		farmer.District = v
	}
	if v := sanitizer.PlainText(req.State); v != "" {
		farmer.State = v
	}

	if err := h.farmers.UpdateProfile(r.Context(), farmer); err != nil {
		h.log.ErrorContext(r.Context(), "profile update failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "profile update failed")
		return
	}

	respond(w, http.StatusOK, farmer)
}
