package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peoplehub/identity-system/internal/api/handler"
	"github.com/peoplehub/identity-system/internal/api/middleware"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

// RouterDeps carries everything the router needs wired in.
type RouterDeps struct {
	Directory    ports.DirectoryService
	Mongo        *mongo.Database // nil when the primary store was down at boot
	Redis        *redis.Client   // nil when redis was down at boot
	FallbackPath string
	JWTSecret    string
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Handlers ---
	accountHandler := handler.NewAccountHandler(deps.Directory)
	inviteHandler := handler.NewInviteHandler(deps.Directory)
	mfaHandler := handler.NewMFAHandler(deps.Directory)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis, deps.FallbackPath)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Public invitee flow, scoped by the bearer token in the path ---
	e.GET("/invites/:token", inviteHandler.Get)
	e.POST("/invites/:token/email/verify", inviteHandler.VerifyEmail)
	e.POST("/invites/:token/sms/start", inviteHandler.SmsStart)
	e.POST("/invites/:token/sms/complete", inviteHandler.SmsComplete)

	// --- Login step-up MFA ---
	e.POST("/auth/mfa/challenge", mfaHandler.Challenge)
	e.POST("/auth/mfa/sms/start", mfaHandler.SmsStart)
	e.POST("/auth/mfa/sms/complete", mfaHandler.SmsComplete)

	// --- Admin surface ---
	admin := e.Group("/admin",
		middleware.Auth(deps.JWTSecret, deps.Directory),
		middleware.RBAC("Admin", "HR"),
	)
	admin.GET("/accounts", accountHandler.List)
	admin.POST("/invites", inviteHandler.Create)
	admin.DELETE("/invites/:id", inviteHandler.Revoke)
	admin.PATCH("/accounts/:id/status", accountHandler.SetStatus)
	admin.PATCH("/accounts/:id/role", accountHandler.SetRole)
	admin.PATCH("/accounts/:id/profile", accountHandler.UpdateProfile)
	admin.POST("/accounts/:id/sessions/revoke", accountHandler.RevokeSessions)
	admin.POST("/accounts/:id/archive", accountHandler.Archive)
	admin.POST("/retention/purge", accountHandler.Purge)

	return e
}
