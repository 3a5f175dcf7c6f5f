package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

// AccountSource resolves the current directory record for a token subject.
// Satisfied by the directory service.
type AccountSource interface {
	GetAccountForLogin(ctx context.Context, email string) (*ports.AccountView, error)
}

// Auth validates the JWT, checks the embedded session version against the
// directory, and injects the subject claims into context. A token whose
// session_version lags the directory has been revoked and is rejected even
// though its signature and expiry are still valid.
func Auth(jwtSecret string, accounts AccountSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			email, _ := claims["sub"].(string)
			version, ok := claims["session_version"].(float64)
			if email == "" || !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			account, err := accounts.GetAccountForLogin(c.Request().Context(), email)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown subject")
			}
			if account.SessionVersion != int(version) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
			}
			if account.Status == domain.StatusDisabled {
				return echo.NewHTTPError(http.StatusForbidden, "account disabled")
			}

			c.Set("email", email)
			c.Set("role", account.Role)
			c.Set("session_version", account.SessionVersion)

			return next(c)
		}
	}
}
