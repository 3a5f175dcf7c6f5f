package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peoplehub/identity-system/internal/api/metrics"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

// MFAHandler handles the login step-up flow: an active account without a
// verified phone must mint a challenge, then bind and verify a phone over
// SMS before the login completes.
type MFAHandler struct {
	service ports.DirectoryService
}

func NewMFAHandler(service ports.DirectoryService) *MFAHandler {
	return &MFAHandler{service: service}
}

// Challenge handles POST /auth/mfa/challenge.
func (h *MFAHandler) Challenge(c echo.Context) error {
	var req mfaChallengeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	challenge, err := h.service.CreateLoginMfaChallenge(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, challenge)
}

// SmsStart handles POST /auth/mfa/sms/start.
func (h *MFAHandler) SmsStart(c echo.Context) error {
	var req mfaSmsStartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start, err := h.service.StartLoginSmsVerification(c.Request().Context(), req.Email, req.ChallengeToken, req.Phone)
	if err != nil {
		return err
	}
	metrics.OTPChallengesStartedTotal.WithLabelValues("login").Inc()
	return c.JSON(http.StatusOK, start)
}

// SmsComplete handles POST /auth/mfa/sms/complete.
func (h *MFAHandler) SmsComplete(c echo.Context) error {
	var req mfaSmsCompleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.CompleteLoginSmsVerification(c.Request().Context(), req.Email, req.ChallengeToken, req.OTP)
	metrics.OTPVerificationsTotal.WithLabelValues("login", otpResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}
