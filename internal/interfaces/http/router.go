// Package http wires the REST API: handlers, middleware and the server
// lifecycle around a gin engine.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/prometheus"
	"github.com/edgarlens/edgarlens/internal/interfaces/http/handlers"
	"github.com/edgarlens/edgarlens/internal/interfaces/http/middleware"
)

// RouterConfig aggregates everything the router needs. Handlers left nil
// simply have their routes omitted, which keeps partial wiring (tests,
// the worker's debug server) cheap.
type RouterConfig struct {
	ConnectionHandler *handlers.ConnectionHandler
	RiskHandler       *handlers.RiskHandler
	SignalHandler     *handlers.SignalHandler
	ClusterHandler    *handlers.ClusterHandler
	AlertHandler      *handlers.AlertHandler
	HealthHandler     *handlers.HealthHandler

	Logger    logging.Logger
	Collector prometheus.MetricsCollector

	Logging   middleware.LoggingConfig
	CORS      middleware.CORSConfig
	RateLimit *middleware.RateLimitConfig
	Limiter   middleware.RateLimiter
}

// DefaultRouterConfig returns a RouterConfig with default middleware
// settings and no handlers wired.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Logging: middleware.DefaultLoggingConfig(),
		CORS:    middleware.DefaultCORSConfig(),
	}
}

// NewRouter builds the gin engine with the full middleware chain and all
// configured routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging(logger, cfg.Logging))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Limiter != nil && cfg.RateLimit != nil {
		r.Use(middleware.RateLimit(cfg.Limiter, *cfg.RateLimit))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Collector != nil {
		r.GET("/metrics", gin.WrapH(cfg.Collector.Handler()))
	}

	api := r.Group("/api/v1")

	if cfg.ConnectionHandler != nil {
		api.GET("/connections/:from/:to", cfg.ConnectionHandler.Find)
		api.GET("/connections/:from/:to/shared", cfg.ConnectionHandler.Shared)
	}
	if cfg.RiskHandler != nil {
		api.GET("/entities/:id/risk", cfg.RiskHandler.Assess)
	}
	if cfg.AlertHandler != nil {
		api.GET("/entities/:id/alerts", cfg.AlertHandler.History)
	}
	if cfg.SignalHandler != nil {
		api.POST("/filings/classify", cfg.SignalHandler.Classify)
		api.POST("/signals/combine", cfg.SignalHandler.Combine)
	}
	if cfg.ClusterHandler != nil {
		api.GET("/companies/:id/insider-clusters", cfg.ClusterHandler.Detect)
	}

	return r
}
