package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edgarlens/edgarlens/internal/application/insider"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// ClusterHandler serves insider buying-cluster detection.
type ClusterHandler struct {
	detector *insider.Detector
	logger   logging.Logger
}

// NewClusterHandler creates a new ClusterHandler.
func NewClusterHandler(detector *insider.Detector, logger logging.Logger) *ClusterHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ClusterHandler{detector: detector, logger: logger.Named("http.cluster")}
}

// Detect handles GET /api/v1/companies/:id/insider-clusters.
// Optional query: window_days (0 selects the configured default).
func (h *ClusterHandler) Detect(c *gin.Context) {
	windowDays, err := intQuery(c, "window_days", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	clusters, err := h.detector.DetectClusters(c.Request.Context(), c.Param("id"), windowDays)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"clusters": clusters, "count": len(clusters)})
}
