package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// AlertHandler serves the alert archive.
type AlertHandler struct {
	service *alert.Service
	logger  logging.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(service *alert.Service, logger logging.Logger) *AlertHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AlertHandler{service: service, logger: logger.Named("http.alert")}
}

// History handles GET /api/v1/entities/:id/alerts.
// Optional query: limit (default 50).
func (h *AlertHandler) History(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	alerts, err := h.service.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"alerts": alerts, "count": len(alerts)})
}
