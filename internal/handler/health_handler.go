package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"photoshare/internal/cache"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db    *gorm.DB
	cache *cache.Client
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *gorm.DB, c *cache.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadinessResponse reports the state of each dependency.
type ReadinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Liveness godoc
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Readiness godoc
// @Summary Readiness probe
// @Description The store is required. An unreachable cache degrades the service without failing it.
// @Tags health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus, 2)
	status, code := "ok", http.StatusOK

	if err := h.pingStore(ctx); err != nil {
		deps["store"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		status, code = "unavailable", http.StatusServiceUnavailable
	} else {
		deps["store"] = dependencyStatus{Status: "ok"}
	}

	if err := h.cache.Ping(ctx); err != nil {
		deps["cache"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		if code == http.StatusOK {
			status = "degraded"
		}
	} else {
		deps["cache"] = dependencyStatus{Status: "ok"}
	}

	return c.JSON(code, ReadinessResponse{Status: status, Dependencies: deps})
}

func (h *HealthHandler) pingStore(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
