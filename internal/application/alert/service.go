// Package alert turns classified signals into durable, published alerts.
// The service deduplicates against the archive before publishing so a
// re-processed filing never pages anyone twice.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edgarlens/edgarlens/internal/application/insider"
	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/signal"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// Severity grades an alert for routing and display.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert types.
const (
	TypeFilingSignal   = "filing_signal"
	TypeInsiderCluster = "insider_cluster"
)

// Alert is one raised finding, persisted to the archive and published to
// the alert topic.
type Alert struct {
	ID              string               `json:"id"`
	EntityID        string               `json:"entity_id"`
	AlertType       string               `json:"alert_type"`
	Severity        Severity             `json:"severity"`
	Title           string               `json:"title"`
	Message         string               `json:"message"`
	AccessionNumber string               `json:"accession_number"`
	CombinedLevel   signal.CombinedLevel `json:"combined_level,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Archive is the durable alert store, implemented by the postgres
// repository.
type Archive interface {
	// Exists reports whether an alert with the same dedup key
	// (entity, type, accession) is already recorded.
	Exists(ctx context.Context, entityID, alertType, accession string) (bool, error)

	// Save records an alert.
	Save(ctx context.Context, a Alert) error

	// ListForEntity returns an entity's alerts, newest first, up to limit.
	ListForEntity(ctx context.Context, entityID string, limit int) ([]Alert, error)
}

// Publisher pushes alerts to downstream consumers, implemented by the
// kafka producer.
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
}

// Service raises alerts: archive first, then publish. A nil publisher
// archives without publishing, which is how the CLI runs.
type Service struct {
	archive   Archive
	publisher Publisher
	logger    logging.Logger
}

// NewService constructs a Service. logger may be nil.
func NewService(archive Archive, publisher Publisher, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		archive:   archive,
		publisher: publisher,
		logger:    logger.Named("alert"),
	}
}

// SeverityFor maps a combined signal level to an alert severity.
func SeverityFor(level signal.CombinedLevel) Severity {
	switch level {
	case signal.CombinedCritical:
		return SeverityCritical
	case signal.CombinedHigh, signal.CombinedHighBearish:
		return SeverityHigh
	case signal.CombinedMedium:
		return SeverityMedium
	}
	return SeverityInfo
}

// RaiseFilingSignal raises an alert for a classified filing and its
// combined level. Low combined levels are not alert-worthy and are
// silently skipped. A duplicate returns ErrCodeAlertDuplicate.
func (s *Service) RaiseFilingSignal(ctx context.Context, filing entity.Filing,
	cls signal.Classification, combined signal.CombinedLevel, ic signal.InsiderContext) (*Alert, error) {

	if combined == signal.CombinedLow {
		return nil, nil
	}

	msg := cls.Reason
	if len(ic.PersonMatches) > 0 {
		msg += fmt.Sprintf("; insiders named in the filing traded nearby: %s",
			strings.Join(ic.PersonMatches, ", "))
	}

	a := Alert{
		ID:              uuid.NewString(),
		EntityID:        filing.CompanyID,
		AlertType:       TypeFilingSignal,
		Severity:        SeverityFor(combined),
		Title:           fmt.Sprintf("%s filing signal: %s", filing.FormType, combined),
		Message:         msg,
		AccessionNumber: filing.AccessionNumber,
		CombinedLevel:   combined,
		CreatedAt:       time.Now().UTC(),
	}
	return s.raise(ctx, a)
}

// RaiseCluster raises an alert for a detected insider buying cluster.
func (s *Service) RaiseCluster(ctx context.Context, c insider.ClusterDetail) (*Alert, error) {
	a := Alert{
		ID:        uuid.NewString(),
		EntityID:  c.CompanyID,
		AlertType: TypeInsiderCluster,
		Severity:  SeverityHigh,
		Title:     fmt.Sprintf("insider buying cluster: %d buyers", c.NumBuyers),
		Message: fmt.Sprintf("%d distinct insiders bought $%.0f between %s and %s",
			c.NumBuyers, c.TotalValue,
			c.WindowStart.Format("2006-01-02"), c.WindowEnd.Format("2006-01-02")),
		AccessionNumber: c.AccessionNumber,
		CreatedAt:       time.Now().UTC(),
	}
	return s.raise(ctx, a)
}

func (s *Service) raise(ctx context.Context, a Alert) (*Alert, error) {
	dup, err := s.archive.Exists(ctx, a.EntityID, a.AlertType, a.AccessionNumber)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAlertArchiveFailed, "dedup lookup failed")
	}
	if dup {
		return nil, errors.Newf(errors.ErrCodeAlertDuplicate,
			"alert for %s/%s/%s already recorded", a.EntityID, a.AlertType, a.AccessionNumber)
	}

	if err := s.archive.Save(ctx, a); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAlertArchiveFailed, "archive write failed")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, a); err != nil {
			// The alert is durable; publish failure is surfaced but not
			// rolled back.
			s.logger.Error("alert publish failed",
				logging.String("alert_id", a.ID),
				logging.Err(err))
			return &a, errors.Wrap(err, errors.ErrCodeAlertPublishFailed, "publish failed")
		}
	}

	s.logger.Info("alert raised",
		logging.String("alert_id", a.ID),
		logging.String("entity_id", a.EntityID),
		logging.String("type", a.AlertType),
		logging.String("severity", string(a.Severity)))
	return &a, nil
}

// History returns an entity's archived alerts, newest first.
func (s *Service) History(ctx context.Context, entityID string, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	alerts, err := s.archive.ListForEntity(ctx, entityID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAlertArchiveFailed, "history lookup failed")
	}
	return alerts, nil
}
