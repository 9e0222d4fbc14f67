// internal/handlers/respond.go

// Package handlers wires the HTTP surface of the POS backend: scan
// resolution, catalog CRUD, the sales ledger, dashboard aggregates,
// exports and background-job enqueueing.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps the domain sentinels onto HTTP statuses.
// Anything unmatched is an internal error; the caller has already logged
// it with context.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrDuplicateCode):
		respondError(w, http.StatusConflict, "SKU or barcode already assigned to another product")
	case errors.Is(err, domain.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "Insufficient stock")
	case errors.Is(err, domain.ErrGenerationExhausted):
		respondError(w, http.StatusConflict, "Could not generate a free code, retry or assign one manually")
	case errors.Is(err, domain.ErrMalformedCode):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
