package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	"github.com/edgarlens/edgarlens/internal/domain/signal"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/postgres"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// postgresAlertRepo is the durable alert archive. The (entity_id,
// alert_type, accession_number) unique index is the dedup key the alert
// service relies on.
type postgresAlertRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

var _ alert.Archive = (*postgresAlertRepo)(nil)

func NewPostgresAlertRepo(conn *postgres.Connection, log logging.Logger) alert.Archive {
	if log == nil {
		log = logging.Default()
	}
	return &postgresAlertRepo{
		conn:     conn,
		log:      log.Named("alert_repo"),
		executor: conn.DB(),
	}
}

func (r *postgresAlertRepo) Exists(ctx context.Context, entityID, alertType, accession string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE entity_id = $1 AND alert_type = $2 AND accession_number = $3
		)
	`
	var exists bool
	err := r.executor.QueryRowContext(ctx, query, entityID, alertType, accession).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check alert existence")
	}
	return exists, nil
}

func (r *postgresAlertRepo) Save(ctx context.Context, a alert.Alert) error {
	query := `
		INSERT INTO alerts (
			id, entity_id, alert_type, severity, title, message,
			accession_number, combined_level, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.executor.ExecContext(ctx, query,
		a.ID, a.EntityID, a.AlertType, string(a.Severity), a.Title, a.Message,
		a.AccessionNumber, nullableString(string(a.CombinedLevel)), a.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.Wrap(err, errors.ErrCodeAlertDuplicate, "alert already recorded")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert alert")
	}
	return nil
}

func (r *postgresAlertRepo) ListForEntity(ctx context.Context, entityID string, limit int) ([]alert.Alert, error) {
	query := `
		SELECT id, entity_id, alert_type, severity, title, message,
		       accession_number, combined_level, created_at
		FROM alerts
		WHERE entity_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.executor.QueryContext(ctx, query, entityID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list alerts")
	}
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "alert row iteration failed")
	}
	return alerts, nil
}

// DeleteOlderThan prunes archived alerts past the retention horizon. The
// worker calls this during maintenance.
func (r *postgresAlertRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.executor.ExecContext(ctx, `DELETE FROM alerts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to prune alerts")
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Info("pruned archived alerts", logging.Int64("deleted", n))
	}
	return n, nil
}

func scanAlert(s scanner) (alert.Alert, error) {
	var a alert.Alert
	var severity string
	var combined sql.NullString
	err := s.Scan(
		&a.ID, &a.EntityID, &a.AlertType, &severity, &a.Title, &a.Message,
		&a.AccessionNumber, &combined, &a.CreatedAt,
	)
	if err != nil {
		return alert.Alert{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan alert row")
	}
	a.Severity = alert.Severity(severity)
	if combined.Valid {
		a.CombinedLevel = signal.CombinedLevel(combined.String)
	}
	return a, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
