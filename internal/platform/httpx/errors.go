// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

var problemTitles = map[int]string{
	http.StatusNotFound:            "Not Found",
	http.StatusConflict:            "Conflict",
	http.StatusBadRequest:          "Validation Failed",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusInternalServerError: "Internal Error",
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	detail := ""
	if status < http.StatusInternalServerError {
		detail = shared.UserSafeMessage(err)
	}
	Problem(w, status, problemTitles[status], detail)
}

// RespondErrorLogged behaves like RespondError and logs server-side failures.
func RespondErrorLogged(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	if logger != nil && StatusOf(err) >= http.StatusInternalServerError {
		logger.Error(msg, slog.Any("error", err))
	}
	RespondError(w, err)
}

// StatusOf returns the status code RespondError writes for err.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
