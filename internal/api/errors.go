package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/tracktoid/internal/domain"
	"github.com/phrazzld/tracktoid/internal/trakt"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, trakt.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, trakt.ErrNotInitialized):
		return "Request manager is not ready"
	case errors.Is(err, domain.ErrEmptyShowID):
		return "Show id is required"
	case errors.Is(err, domain.ErrEmptyShowTitle):
		return "Show title is required"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrInvalidRequest):
		return "Invalid request"
	default:
		return "An unexpected error occurred"
	}
}

// ErrInvalidRequest indicates a malformed request body.
var ErrInvalidRequest = errors.New("invalid request")
