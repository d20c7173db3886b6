package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func healthRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func probe(r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func healthyCheck(name string) HealthChecker {
	return HealthCheckFunc{ComponentName: name, Fn: func(context.Context) error { return nil }}
}

func failingCheck(name string) HealthChecker {
	return HealthCheckFunc{ComponentName: name, Fn: func(context.Context) error {
		return fmt.Errorf("%s: connection refused", name)
	}}
}

func TestLiveness(t *testing.T) {
	r := healthRouter(NewHealthHandler("1.2.3"))

	w, body := probe(r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Contains(t, body, "uptime")
}

func TestReadinessNoCheckers(t *testing.T) {
	r := healthRouter(NewHealthHandler("test"))

	w, body := probe(r, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestReadinessAllHealthy(t *testing.T) {
	r := healthRouter(NewHealthHandler("test", healthyCheck("neo4j"), healthyCheck("redis")))

	w, body := probe(r, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])

	components, ok := body["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, components, 2)
}

func TestReadinessOneUnhealthy(t *testing.T) {
	r := healthRouter(NewHealthHandler("test", healthyCheck("neo4j"), failingCheck("postgres")))

	w, body := probe(r, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", body["status"])

	components := body["components"].(map[string]interface{})
	pg := components["postgres"].(map[string]interface{})
	assert.Equal(t, "unhealthy", pg["status"])
	assert.Contains(t, pg["error"], "connection refused")
}
