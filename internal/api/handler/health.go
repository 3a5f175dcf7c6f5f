package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler handles GET /health — liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready — readiness probe over the
// three backends: MongoDB primary, Redis, and the fallback store file.
// Mongo and Redis may be nil when the service booted degraded; they are then
// reported as down without being probed. Only the fallback file is a hard
// requirement: the store decorator keeps serving through it while the
// primary is away, so a missing primary degrades readiness without failing it.
type ReadinessHandler struct {
	mongo        *mongo.Database
	redis        *redis.Client
	fallbackPath string
}

func NewReadinessHandler(db *mongo.Database, rdb *redis.Client, fallbackPath string) *ReadinessHandler {
	return &ReadinessHandler{
		mongo:        db,
		redis:        rdb,
		fallbackPath: fallbackPath,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	degraded := false
	ready := true

	// --- MongoDB ping ---
	switch {
	case h.mongo == nil:
		deps["mongodb"] = dependencyStatus{Status: "unhealthy", Error: "not connected"}
		degraded = true
	default:
		if err := h.mongo.Client().Ping(ctx, nil); err != nil {
			deps["mongodb"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			degraded = true
		} else {
			deps["mongodb"] = dependencyStatus{Status: "ok"}
		}
	}

	// --- Redis ping ---
	switch {
	case h.redis == nil:
		deps["redis"] = dependencyStatus{Status: "unhealthy", Error: "not connected"}
		degraded = true
	default:
		if _, err := h.redis.Ping(ctx).Result(); err != nil {
			deps["redis"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			degraded = true
		} else {
			deps["redis"] = dependencyStatus{Status: "ok"}
		}
	}

	// --- Fallback store file ---
	if _, err := os.Stat(h.fallbackPath); err != nil {
		deps["fallback_store"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		ready = false
	} else {
		deps["fallback_store"] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if degraded {
		status = "degraded"
	}
	if !ready {
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
