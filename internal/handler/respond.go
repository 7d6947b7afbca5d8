// Package handler implements the JSON HTTP API: authentication, farmer and
// farm records, advisory lookups (weather, market, finance, crop
// recommendations), and the admin surface.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies; advisory payloads are small.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("handler: empty request body")

type errorResponse struct {
	Error string `json:"error"`
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError writes a JSON error body with the given status.
func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, errorResponse{Error: msg})
}

// decode reads the request body into dst, rejecting oversized and malformed
// payloads.
func decode(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// badRequest maps a decode failure to a 400 response.
func badRequest(w http.ResponseWriter, err error) {
	if errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "request body required")
		return
	}
	respondError(w, http.StatusBadRequest, "malformed request body")
}
