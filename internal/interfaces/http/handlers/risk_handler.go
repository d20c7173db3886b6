package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edgarlens/edgarlens/internal/application/risk"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// RiskHandler serves risk-assessment endpoints.
type RiskHandler struct {
	assessor *risk.Assessor
	logger   logging.Logger
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(assessor *risk.Assessor, logger logging.Logger) *RiskHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RiskHandler{assessor: assessor, logger: logger.Named("http.risk")}
}

// Assess handles GET /api/v1/entities/:id/risk.
func (h *RiskHandler) Assess(c *gin.Context) {
	assessment, err := h.assessor.Assess(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, assessment)
}
