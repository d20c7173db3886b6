package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edgarlens/edgarlens/internal/application/connection"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// ConnectionHandler serves connection-search endpoints.
type ConnectionHandler struct {
	finder *connection.Finder
	logger logging.Logger
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(finder *connection.Finder, logger logging.Logger) *ConnectionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConnectionHandler{finder: finder, logger: logger.Named("http.connection")}
}

// Find handles GET /api/v1/connections/:from/:to.
// Optional query: max_hops (0 selects the configured default).
func (h *ConnectionHandler) Find(c *gin.Context) {
	maxHops, err := intQuery(c, "max_hops", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	claim, err := h.finder.Find(c.Request.Context(), c.Param("from"), c.Param("to"), maxHops)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, claim)
}

// Shared handles GET /api/v1/connections/:from/:to/shared, listing
// first-degree neighbors common to both entities.
func (h *ConnectionHandler) Shared(c *gin.Context) {
	shared, err := h.finder.SharedConnections(c.Request.Context(), c.Param("from"), c.Param("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"shared_connections": shared, "count": len(shared)})
}
