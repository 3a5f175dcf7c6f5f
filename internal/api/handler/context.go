package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxActor extracts the authenticated subject injected by the Auth middleware
// and performs a fast-fail check before any service call: both claims must be
// present, which proves the middleware ran on this route.
func ctxActor(c echo.Context) (email, role string, err error) {
	email, _ = c.Get("email").(string)
	role, _ = c.Get("role").(string)
	if email == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return email, role, nil
}
