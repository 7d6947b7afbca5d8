package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agrivisor/agrivisor/internal/auth"
	"github.com/agrivisor/agrivisor/internal/repository"
	"github.com/agrivisor/agrivisor/pkg/id"
	"github.com/agrivisor/agrivisor/pkg/sanitizer"
)

const minPasswordLen = 8

// farmerStore is the subset of the farmer repository the auth handler uses.
type farmerStore interface {
	Create(ctx context.Context, f *repository.Farmer) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Farmer, error)
	GetByPhone(ctx context.Context, phone string) (*repository.Farmer, error)
	UpdateProfile(ctx context.Context, f *repository.Farmer) error
}

// Auth handles farmer registration and login.
type Auth struct {
	farmers farmerStore
	tokens  *auth.TokenService
	log     *slog.Logger
}

// NewAuth creates the auth handler.
func NewAuth(farmers farmerStore, tokens *auth.TokenService, log *slog.Logger) *Auth {
	return &Auth{farmers: farmers, tokens: tokens, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	District string `json:"district"`
	State    string `json:"state"`
}

type authResponse struct {
	Token  string             `json:"token"`
	Farmer *repository.Farmer `json:"farmer"`
}

// Register creates a farmer account and returns an access token.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	req.Name = sanitizer.PlainText(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.District = sanitizer.PlainText(req.District)
	req.State = sanitizer.PlainText(req.State)

	switch {
	case req.Name == "":
		respondError(w, http.StatusBadRequest, "name is required")
		return
	case !validPhone(req.Phone):
		respondError(w, http.StatusBadRequest, "a 10-digit phone number is required")
		return
	case len(req.Password) < minPasswordLen:
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			respondError(w, http.StatusBadRequest, "password too long")
			return
		}
		h.log.ErrorContext(r.Context(), "password hash failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	farmer := &repository.Farmer{
		ID:           uuid.New(),
		Code:         id.NewCode(),
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		District:     req.District,
		State:        req.State,
		Role:         auth.RoleFarmer,
	}

	if err := h.farmers.Create(r.Context(), farmer); err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			respondError(w, http.StatusConflict, "phone number already registered")
			return
		}
		h.log.ErrorContext(r.Context(), "farmer create failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := h.tokens.Issue(farmer.ID, farmer.Role)
	if err != nil {
		h.log.ErrorContext(r.Context(), "token issue failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	respond(w, http.StatusCreated, authResponse{Token: token, Farmer: farmer})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a fresh access token.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	farmer, err := h.farmers.GetByPhone(r.Context(), strings.TrimSpace(req.Phone))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid phone or password")
			return
		}
		h.log.ErrorContext(r.Context(), "farmer lookup failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := auth.VerifyPassword(farmer.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid phone or password")
		return
	}

	token, err := h.tokens.Issue(farmer.ID, farmer.Role)
	if err != nil {
		h.log.ErrorContext(r.Context(), "token issue failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	respond(w, http.StatusOK, authResponse{Token: token, Farmer: farmer})
}

// validPhone accepts Indian mobile numbers: ten digits, optionally prefixed
// with +91.
func validPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+91")
	if len(digits) != 10 {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
