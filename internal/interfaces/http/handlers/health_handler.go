package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checks  map[string]CheckFunc
	logger  logging.Logger
	timeout time.Duration
	version string
}

// NewHealthHandler builds the handler.  Checks map component names to probe
// functions; readiness fails if any probe errors.
func NewHealthHandler(checks map[string]CheckFunc, version string, log logging.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		logger:  log.Named("health"),
		timeout: 5 * time.Second,
		version: version,
	}
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Readiness probes every registered dependency and reports per-component
// status.  Any failing component yields 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = "down"
			healthy = false
			h.logger.Warn("readiness check failed",
				logging.String("component", name), logging.Err(err))
			continue
		}
		components[name] = "up"
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not_ready"
	}
	c.JSON(status, gin.H{"status": overall, "components": components})
}
