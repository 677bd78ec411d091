// Package handler provides the HTTP layer over the chat and advisory
// services.
package handler

import (
	"encoding/json"
	"net/http"

	"qchat/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps service errors onto status codes: not-found and
// rule violations are distinguishable rejections, everything else is a
// masked internal fault.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrSessionNotFound),
		errors.Is(err, errors.ErrMessageNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errors.ErrSessionInactive),
		errors.Is(err, errors.ErrNoKey),
		errors.Is(err, errors.ErrKeyExpired),
		errors.Is(err, errors.ErrInvalidMethod),
		errors.Is(err, errors.ErrInvalidSender),
		errors.Is(err, errors.ErrInvalidBitLength),
		errors.Is(err, errors.ErrInvalidFormat),
		errors.Is(err, errors.ErrNoMessages):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
