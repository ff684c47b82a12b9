package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/spacetime/internal/apperror"
)

// ErrorResponse is the uniform error body every endpoint returns, so
// clients parse one shape regardless of status code.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends data as JSON with the given status. Headers and status
// must go out before the first body byte — hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends the uniform
// error body. This function is the only place status codes are decided.
//
// Mapping:
//
//	ErrValidation   → 400  (bad request body / bad upstream payload)
//	ErrUnauthorized → 401  (missing/expired/forged token)
//	ErrNotOwner     → 401  (private record, caller isn't the owner —
//	                        deliberately not 404: existence isn't hidden)
//	ErrNotFound     → 404
//	ErrConflict     → 409  (shouldn't escape the auth flow, but mapped
//	                        in case it ever does)
//	ErrUpstream     → 502  (identity provider failed)
//	anything else   → 500 with a generic message — internal details
//	                  never reach the client
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotOwner):
			status = http.StatusUnauthorized
			errorType = "not_owner"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
			errorType = "upstream_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
