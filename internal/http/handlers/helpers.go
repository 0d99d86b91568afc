package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"parklite/internal/repository"
	"parklite/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps repository/service sentinels to HTTP statuses.
// Unknown errors become a 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrVehicleNotFound):
		writeError(w, http.StatusNotFound, "vehicle not found")
	case errors.Is(err, repository.ErrZoneNotFound):
		writeError(w, http.StatusNotFound, "zone not found")
	case errors.Is(err, repository.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, repository.ErrDuplicatePlate):
		writeError(w, http.StatusConflict, "vehicle with this plate already exists")
	case errors.Is(err, repository.ErrActiveSessionExists):
		writeError(w, http.StatusConflict, "an active session already exists for this vehicle")
	case errors.Is(err, repository.ErrSessionNotActive):
		writeError(w, http.StatusUnprocessableEntity, "session is already finalized")
	case errors.Is(err, service.ErrNotSessionOwner):
		writeError(w, http.StatusForbidden, "session does not belong to you")
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "amount must be greater than 0")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
