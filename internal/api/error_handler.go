package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps tagged business errors to their appropriate HTTP status codes,
//     with the error kind as the machine-readable message.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
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

	// Tagged business errors carry their kind as the client-facing message.
	var de *domain.Error
	if errors.As(err, &de) {
		return statusForKind(de.Kind), string(de.Kind)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindUserNotFound, domain.KindInviteNotFound, domain.KindInviteUserNotFound:
		return http.StatusNotFound
	case domain.KindInvalidEmail, domain.KindInvalidRole, domain.KindInvalidStatus,
		domain.KindInvalidPhoneNumber, domain.KindInvalidUser:
		return http.StatusBadRequest
	case domain.KindInvalidInviteToken, domain.KindInvalidMFAChallenge:
		return http.StatusUnauthorized
	case domain.KindAccountDisabled:
		return http.StatusForbidden
	case domain.KindInviteExpired, domain.KindInviteRevoked:
		return http.StatusGone
	case domain.KindInviteAlreadyVerified, domain.KindAlreadyVerified:
		return http.StatusConflict
	case domain.KindInvalidOTP, domain.KindOTPNotRequested, domain.KindOTPExpired:
		return http.StatusUnprocessableEntity
	case domain.KindOTPAttemptsExceeded:
		return http.StatusLocked
	case domain.KindOTPCooldown:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}
