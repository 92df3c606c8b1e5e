// Package http assembles the gin route tree and the server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/InstallBase-Insight/internal/interfaces/http/handlers"
	"github.com/turtacn/InstallBase-Insight/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware the route tree needs.
type RouterConfig struct {
	LeadHandler   *handlers.LeadHandler
	RunHandler    *handlers.RunHandler
	HealthHandler *handlers.HealthHandler

	CORS       *middleware.CORSConfig
	Logging    *middleware.LoggingConfig
	AppMetrics *prometheus.AppMetrics
	Metrics    prometheus.MetricsCollector

	Mode   string // gin mode: "debug" | "release" | "test"
	Logger logging.Logger
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))

	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}
	r.Use(middleware.RequestLogging(logger, logCfg))

	corsCfg := middleware.DefaultCORSConfig()
	if cfg.CORS != nil {
		corsCfg = *cfg.CORS
	}
	r.Use(middleware.CORS(corsCfg))

	if cfg.AppMetrics != nil {
		r.Use(middleware.HTTPMetrics(cfg.AppMetrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	registerLeadRoutes(api, cfg.LeadHandler)
	registerRunRoutes(api, cfg.RunHandler)

	return r
}

func registerLeadRoutes(r *gin.RouterGroup, h *handlers.LeadHandler) {
	if h == nil {
		return
	}
	r.GET("/leads", h.List)
	r.GET("/leads/:id", h.Get)
	r.GET("/accounts/:id/leads", h.AccountLeads)
	r.GET("/accounts/:id/insights", h.AccountInsights)
}

func registerRunRoutes(r *gin.RouterGroup, h *handlers.RunHandler) {
	if h == nil {
		return
	}
	r.POST("/runs", h.Trigger)
	r.GET("/runs", h.List)
	r.GET("/runs/:id", h.Get)
}
