package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrPropertyNotFound),
		errors.Is(err, domain.ErrImageNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"

	case errors.Is(err, domain.ErrDuplicateListing),
		errors.Is(err, domain.ErrDuplicateImage),
		errors.Is(err, domain.ErrImageLimit),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrEmailInUse),
		errors.Is(err, domain.ErrAlreadyUnlocked),
		errors.Is(err, domain.ErrUnlockInProgress):
		return http.StatusConflict, err.Error()

	case errors.Is(err, domain.ErrInvalidPhoneNumber),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidPropertyType),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidImageURL):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, domain.ErrAccountDeactivated):
		return http.StatusUnauthorized, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
