package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peoplehub/identity-system/internal/api/metrics"
	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

// InviteHandler handles both sides of the invitation lifecycle: the admin
// endpoints that issue and revoke invitations, and the public token-scoped
// endpoints the invitee walks through to activate the account.
type InviteHandler struct {
	service ports.DirectoryService
}

func NewInviteHandler(service ports.DirectoryService) *InviteHandler {
	return &InviteHandler{service: service}
}

// Create handles POST /admin/invites. The response carries the bearer token
// exactly once; it is never retrievable again.
func (h *InviteHandler) Create(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req inviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.service.Invite(c.Request().Context(), req.Email, req.Role, actor)
	if err != nil {
		return err
	}
	metrics.InvitesIssuedTotal.WithLabelValues(created.Invitation.Role).Inc()
	return c.JSON(http.StatusCreated, created)
}

// Revoke handles DELETE /admin/invites/:id.
func (h *InviteHandler) Revoke(c echo.Context) error {
	invite, err := h.service.RevokeInvite(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if invite.Status == domain.InviteRevoked {
		metrics.InvitesRevokedTotal.Inc()
	}
	return c.JSON(http.StatusOK, invite)
}

// Get handles GET /invites/:token, the invitee opening the invite link.
func (h *InviteHandler) Get(c echo.Context) error {
	invite, err := h.service.GetInviteForOpening(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invite)
}

// VerifyEmail handles POST /invites/:token/email/verify. Possessing the
// token proves control of the mailbox it was sent to.
func (h *InviteHandler) VerifyEmail(c echo.Context) error {
	account, err := h.service.VerifyInviteEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// SmsStart handles POST /invites/:token/sms/start. The OTP and masked phone
// come back to the caller for out-of-band delivery.
func (h *InviteHandler) SmsStart(c echo.Context) error {
	var req smsStartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start, err := h.service.StartInviteSmsVerification(c.Request().Context(), c.Param("token"), req.Phone)
	if err != nil {
		return err
	}
	metrics.OTPChallengesStartedTotal.WithLabelValues("invite").Inc()
	return c.JSON(http.StatusOK, start)
}

// SmsComplete handles POST /invites/:token/sms/complete.
func (h *InviteHandler) SmsComplete(c echo.Context) error {
	var req smsCompleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.CompleteInviteSmsVerification(c.Request().Context(), c.Param("token"), req.OTP)
	metrics.OTPVerificationsTotal.WithLabelValues("invite", otpResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// otpResult classifies a completion outcome for the verification counter.
func otpResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrOTPExpired):
		return "expired"
	case errors.Is(err, domain.ErrOTPAttemptsExceeded):
		return "locked"
	default:
		return "invalid"
	}
}
