// Package worker runs the background signal pipeline: it consumes
// filing-received events, classifies each filing against its insider
// context, raises alerts, and periodically rescans touched companies for
// insider buying clusters.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	"github.com/edgarlens/edgarlens/internal/application/insider"
	"github.com/edgarlens/edgarlens/internal/domain/graph"
	"github.com/edgarlens/edgarlens/internal/domain/signal"
	"github.com/edgarlens/edgarlens/internal/infrastructure/messaging/kafka"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/prometheus"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// ScanLock guards the periodic cluster scan so only one worker instance
// runs it at a time. Satisfied by the redis distributed lock.
type ScanLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Option configures a Worker.
type Option func(*Worker)

// WithMetrics wires pipeline metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithScanLock guards cluster scans with a cross-instance lock.
func WithScanLock(l ScanLock) Option {
	return func(w *Worker) { w.scanLock = l }
}

// WithScanInterval overrides how often pending companies are rescanned.
func WithScanInterval(d time.Duration) Option {
	return func(w *Worker) { w.scanEvery = d }
}

// WithWindowDays overrides the insider lookback window.
func WithWindowDays(days int) Option {
	return func(w *Worker) { w.windowDays = days }
}

// Worker is the filing signal pipeline. Safe for concurrent use; the
// pending set is the only mutable state.
type Worker struct {
	store    graph.FactStore
	detector *insider.Detector
	alerts   *alert.Service
	logger   logging.Logger

	metrics    *prometheus.AppMetrics
	scanLock   ScanLock
	scanEvery  time.Duration
	windowDays int

	mu      sync.Mutex
	pending map[string]struct{}
}

// New builds a Worker over the shared services.
func New(store graph.FactStore, detector *insider.Detector, alerts *alert.Service,
	logger logging.Logger, opts ...Option) *Worker {

	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		store:     store,
		detector:  detector,
		alerts:    alerts,
		logger:    logger.Named("worker"),
		scanEvery: 15 * time.Minute,
		pending:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Register subscribes the worker's handlers on the consumer.
func (w *Worker) Register(consumer *kafka.Consumer) {
	consumer.Subscribe(kafka.TopicFilingReceived, w.HandleFilingEvent)
}

// HandleFilingEvent processes one filing-received event end to end:
// resolve the filing, classify it, fold in insider context, raise the
// alert. Errors propagate so the consumer can retry; a filing not yet in
// the fact store is retried the same way since ingestion may still be
// catching up.
func (w *Worker) HandleFilingEvent(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	var payload kafka.FilingReceivedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}

	filing, err := w.store.Filing(ctx, payload.AccessionNumber)
	if err != nil {
		return err
	}

	started := time.Now()
	cls := signal.ClassifyFiling(filing)
	combined := signal.Combine(cls.Level, signal.InsiderContext{})

	var ic signal.InsiderContext
	if filing.CompanyID != "" {
		ic, err = w.detector.ContextForFiling(ctx, filing, w.windowDays)
		if err != nil {
			return err
		}
		combined = signal.Combine(cls.Level, ic)
		w.markPending(filing.CompanyID)
	}

	if w.metrics != nil {
		prometheus.RecordClassification(w.metrics, filing.FormType, string(combined), time.Since(started))
	}
	w.logger.Info("filing classified",
		logging.String("accession_number", filing.AccessionNumber),
		logging.String("form_type", filing.FormType),
		logging.String("signal_level", string(cls.Level)),
		logging.String("combined_level", string(combined)))

	raised, err := w.alerts.RaiseFilingSignal(ctx, filing, cls, combined, ic)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeAlertDuplicate {
			if w.metrics != nil {
				prometheus.RecordAlert(w.metrics, alert.TypeFilingSignal, "", true)
			}
			w.logger.Debug("alert already raised for filing",
				logging.String("accession_number", filing.AccessionNumber))
			return nil
		}
		return err
	}
	if raised != nil && w.metrics != nil {
		prometheus.RecordAlert(w.metrics, raised.AlertType, string(raised.Severity), false)
	}
	return nil
}

// markPending queues a company for the next cluster scan.
func (w *Worker) markPending(companyID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[companyID] = struct{}{}
}

// drainPending takes the current pending set.
func (w *Worker) drainPending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	w.pending = make(map[string]struct{})
	return ids
}

// RunClusterScans rescans pending companies on the configured interval
// until the context ends.
func (w *Worker) RunClusterScans(ctx context.Context) {
	ticker := time.NewTicker(w.scanEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ScanOnce(ctx)
		}
	}
}

// ScanOnce runs one cluster scan over the pending companies. Companies
// that fail are requeued for the next pass.
func (w *Worker) ScanOnce(ctx context.Context) {
	if w.scanLock != nil {
		acquired, err := w.scanLock.TryLock(ctx)
		if err != nil {
			w.logger.Warn("cluster scan lock unavailable", logging.Err(err))
			return
		}
		if !acquired {
			w.logger.Debug("cluster scan already running elsewhere")
			return
		}
		defer func() {
			if err := w.scanLock.Unlock(ctx); err != nil {
				w.logger.Warn("cluster scan unlock failed", logging.Err(err))
			}
		}()
	}

	started := time.Now()
	companies := w.drainPending()
	status := "ok"
	for _, companyID := range companies {
		if err := w.scanCompany(ctx, companyID); err != nil {
			status = "partial"
			w.markPending(companyID)
			w.logger.Warn("cluster scan failed, company requeued",
				logging.String("company_id", companyID),
				logging.Err(err))
		}
	}

	if w.metrics != nil {
		w.metrics.ClusterScansTotal.WithLabelValues(status).Inc()
		w.metrics.ClusterScanDuration.WithLabelValues().Observe(time.Since(started).Seconds())
	}
	if len(companies) > 0 {
		w.logger.Info("cluster scan finished",
			logging.Int("companies", len(companies)),
			logging.Duration("duration", time.Since(started)))
	}
}

func (w *Worker) scanCompany(ctx context.Context, companyID string) error {
	clusters, err := w.detector.DetectClusters(ctx, companyID, w.windowDays)
	if err != nil {
		return err
	}
	for _, c := range clusters {
		if w.metrics != nil {
			w.metrics.ClustersDetectedTotal.WithLabelValues().Inc()
		}
		raised, err := w.alerts.RaiseCluster(ctx, c)
		if err != nil {
			if errors.GetCode(err) == errors.ErrCodeAlertDuplicate {
				continue
			}
			return err
		}
		if raised != nil && w.metrics != nil {
			prometheus.RecordAlert(w.metrics, raised.AlertType, string(raised.Severity), false)
		}
	}
	return nil
}

// PendingCount reports the companies waiting for the next cluster scan.
func (w *Worker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
