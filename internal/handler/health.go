package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/agrimart/storefront/pkg/health"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

type HealthHandler struct {
	monitor *health.Monitor
	version string
}

type HealthCheckResponse struct {
	Status    health.Status        `json:"status"`
	Version   string               `json:"version"`
	Timestamp time.Time            `json:"timestamp"`
	Checks    []health.CheckResult `json:"checks"`
}

func NewHealthHandler(monitor *health.Monitor, version string) *HealthHandler {
	return &HealthHandler{
		monitor: monitor,
		version: version,
	}
}

// HealthCheck runs every registered check. Only critical failures make the
// service unhealthy.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status, checks := h.monitor.CheckNow(ctx)

	statusCode := http.StatusOK
	if status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.Stringer("overall_status", status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, HealthCheckResponse{
		Status:    status,
		Version:   h.version,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}

// BasicHealth returns a simple liveness answer for load balancers.
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    health.StatusHealthy,
		"version":   h.version,
		"timestamp": time.Now(),
	})
}
