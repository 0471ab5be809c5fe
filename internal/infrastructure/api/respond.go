package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"invochat-core-sync-layer/internal/domain"
)

type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// statusFor maps domain sentinels onto HTTP status codes. Anything
// unrecognized is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDuplicateWebhook), errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStaleWebhook),
		errors.Is(err, domain.ErrUnknownPlatform),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// messageFor keeps upstream error detail out of responses for 5xx.
func messageFor(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
