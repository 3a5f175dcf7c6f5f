package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peoplehub/identity-system/internal/api/metrics"
	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

// AccountHandler handles the admin directory endpoints. All routes are
// behind the Auth and RBAC middleware; business errors flow to the central
// error handler.
type AccountHandler struct {
	service ports.DirectoryService
}

func NewAccountHandler(service ports.DirectoryService) *AccountHandler {
	return &AccountHandler{service: service}
}

// List handles GET /admin/accounts.
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.service.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": accounts, "total": len(accounts)})
}

// UpdateProfile handles PATCH /admin/accounts/:id/profile.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.service.UpdateProfile(c.Request().Context(), c.Param("id"), ports.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// SetStatus handles PATCH /admin/accounts/:id/status.
func (h *AccountHandler) SetStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.SetStatus(c.Request().Context(), c.Param("id"), domain.AccountStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// SetRole handles PATCH /admin/accounts/:id/role.
func (h *AccountHandler) SetRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.SetRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// RevokeSessions handles POST /admin/accounts/:id/sessions/revoke.
func (h *AccountHandler) RevokeSessions(c echo.Context) error {
	account, err := h.service.RevokeSessions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Archive handles POST /admin/accounts/:id/archive. The acting admin is
// taken from the token, never from the payload.
func (h *AccountHandler) Archive(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req archiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.service.Archive(c.Request().Context(), c.Param("id"), actor, req.Reason, req.RetentionDeleteAt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Purge handles POST /admin/retention/purge. The sweep is externally
// triggered; there is no background scheduler.
func (h *AccountHandler) Purge(c echo.Context) error {
	result, err := h.service.PurgeDue(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return err
	}
	metrics.AccountsPurgedTotal.Add(float64(result.AccountsPurged))
	return c.JSON(http.StatusOK, result)
}
