// Package middleware holds the gin middleware shared by every route:
// request logging, CORS, and rate limiting.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/prometheus"
)

// RequestIDHeader is the header carrying the request correlation id.
const RequestIDHeader = "X-Request-ID"

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are high-frequency paths excluded from logging.
	SkipPaths []string

	// SlowThreshold promotes requests above this duration to Warn.
	SlowThreshold time.Duration

	// Metrics, when set, records per-request counters and latency.
	Metrics *prometheus.AppMetrics
}

// DefaultLoggingConfig returns the default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// RequestLogging logs one line per request with method, path, status,
// duration and request id. 5xx log at Error, 4xx and slow requests at
// Warn. A missing X-Request-ID is generated and echoed back.
func RequestLogging(logger logging.Logger, cfg LoggingConfig) gin.HandlerFunc {
	skipSet := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skipSet[p] = true
	}
	logger = logger.Named("http")

	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set("request_id", requestID)

		if skipSet[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		// Route template, not the raw path, so metrics cardinality stays
		// bounded; raw path for the log line.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		if cfg.Metrics != nil {
			prometheus.RecordHTTPRequest(cfg.Metrics, c.Request.Method, route, status,
				duration, c.Request.ContentLength, int64(c.Writer.Size()))
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("client_ip", c.ClientIP()),
			logging.String("request_id", requestID),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request completed with server error", fields...)
		case status >= 400:
			logger.Warn("request completed with client error", fields...)
		case cfg.SlowThreshold > 0 && duration >= cfg.SlowThreshold:
			logger.Warn("request completed (slow)", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}
