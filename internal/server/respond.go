package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"splitledger/internal/calculator"
	"splitledger/internal/rates"
	"splitledger/internal/service"
	"splitledger/internal/settlement"
	"splitledger/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps each error kind of the engine to a distinct client-facing
// status. Unknown errors surface as 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, calculator.ErrNoParticipants),
		errors.Is(err, calculator.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, settlement.ErrAlreadySettled),
		errors.Is(err, settlement.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, rates.ErrRateNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
