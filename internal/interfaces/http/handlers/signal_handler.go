package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edgarlens/edgarlens/internal/application/insider"
	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/graph"
	"github.com/edgarlens/edgarlens/internal/domain/signal"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// SignalHandler serves filing classification and signal combination.
type SignalHandler struct {
	store    graph.FactStore
	detector *insider.Detector
	logger   logging.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(store graph.FactStore, detector *insider.Detector, logger logging.Logger) *SignalHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SignalHandler{store: store, detector: detector, logger: logger.Named("http.signal")}
}

// ClassifyRequest selects the filing to classify: by accession number, or
// inline for filings not yet ingested.
type ClassifyRequest struct {
	AccessionNumber string         `json:"accession_number,omitempty"`
	Filing          *entity.Filing `json:"filing,omitempty"`
}

// ClassifyResponse carries the classification and, when insider context
// could be resolved, the combined level.
type ClassifyResponse struct {
	Filing         entity.Filing          `json:"filing"`
	Classification signal.Classification  `json:"classification"`
	InsiderContext *signal.InsiderContext `json:"insider_context,omitempty"`
	CombinedLevel  signal.CombinedLevel   `json:"combined_level"`
}

// Classify handles POST /api/v1/filings/classify.
func (h *SignalHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}

	var filing entity.Filing
	switch {
	case req.AccessionNumber != "":
		f, err := h.store.Filing(c.Request.Context(), req.AccessionNumber)
		if err != nil {
			respondError(c, err)
			return
		}
		filing = f
	case req.Filing != nil:
		filing = *req.Filing
	default:
		respondError(c, errors.New(errors.CodeInvalidParam,
			"request must carry an accession_number or an inline filing"))
		return
	}

	cls := signal.ClassifyFiling(filing)

	resp := ClassifyResponse{
		Filing:         filing,
		Classification: cls,
		CombinedLevel:  signal.Combine(cls.Level, signal.InsiderContext{}),
	}

	// Insider context needs a company to resolve transactions against.
	if filing.CompanyID != "" {
		ic, err := h.detector.ContextForFiling(c.Request.Context(), filing, 0)
		if err != nil {
			h.logger.Warn("insider context unavailable, classifying without it",
				logging.String("company_id", filing.CompanyID),
				logging.Err(err))
		} else {
			resp.InsiderContext = &ic
			resp.CombinedLevel = signal.Combine(cls.Level, ic)
		}
	}

	ok(c, resp)
}

// CombineRequest is the input of the pure signal-combination endpoint.
type CombineRequest struct {
	SignalLevel    string                `json:"signal_level" binding:"required"`
	InsiderContext signal.InsiderContext `json:"insider_context"`
}

// Combine handles POST /api/v1/signals/combine.
func (h *SignalHandler) Combine(c *gin.Context) {
	var req CombineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}

	level := signal.ParseLevel(req.SignalLevel)
	combined := signal.Combine(level, req.InsiderContext)
	ok(c, gin.H{
		"signal_level":   level,
		"combined_level": combined,
	})
}
