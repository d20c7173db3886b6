package http

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

func TestServerAddr(t *testing.T) {
	s := NewServer(config.ServerConfig{Port: 8080, Mode: gin.TestMode}, gin.New(), logging.NewNopLogger())
	assert.Equal(t, ":8080", s.Addr())
}

func TestServerStartAndShutdown(t *testing.T) {
	cfg := config.ServerConfig{
		Port:            0,
		Mode:            gin.TestMode,
		ShutdownTimeout: 2 * time.Second,
	}
	s := NewServer(cfg, gin.New(), logging.NewNopLogger())

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	// Give the listener a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}

func TestServerShutdownDefaultTimeout(t *testing.T) {
	s := NewServer(config.ServerConfig{Port: 0, Mode: gin.TestMode}, gin.New(), nil)
	assert.NoError(t, s.Shutdown(context.Background()))
}
