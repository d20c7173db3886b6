package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	"github.com/edgarlens/edgarlens/internal/domain/signal"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/postgres"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

type AlertRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo alert.Archive
}

func (s *AlertRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.NoError(err)

	conn := postgres.NewConnectionWithDB(s.db, logging.NewNopLogger())
	s.repo = NewPostgresAlertRepo(conn, logging.NewNopLogger())
}

func (s *AlertRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func sampleAlert() alert.Alert {
	return alert.Alert{
		ID:              "9d7b4c1e-0000-0000-0000-000000000001",
		EntityID:        "nikola",
		AlertType:       alert.TypeFilingSignal,
		Severity:        alert.SeverityCritical,
		Title:           "8-K filing signal: critical",
		Message:         "bankruptcy filing",
		AccessionNumber: "0001193125-23-000001",
		CombinedLevel:   signal.CombinedCritical,
		CreatedAt:       time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *AlertRepoTestSuite) TestExists_Found() {
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("nikola", alert.TypeFilingSignal, "0001193125-23-000001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.repo.Exists(context.Background(), "nikola", alert.TypeFilingSignal, "0001193125-23-000001")
	s.NoError(err)
	s.True(ok)
}

func (s *AlertRepoTestSuite) TestExists_QueryError() {
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("nikola", alert.TypeFilingSignal, "acc-1").
		WillReturnError(sql.ErrConnDone)

	_, err := s.repo.Exists(context.Background(), "nikola", alert.TypeFilingSignal, "acc-1")
	s.Error(err)
	s.Equal(errors.ErrCodeDatabaseError, errors.GetCode(err))
}

func (s *AlertRepoTestSuite) TestSave_Success() {
	a := sampleAlert()
	s.mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs(a.ID, a.EntityID, a.AlertType, string(a.Severity), a.Title, a.Message,
			a.AccessionNumber, "critical", a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Save(context.Background(), a))
}

func (s *AlertRepoTestSuite) TestSave_DuplicateKey() {
	a := sampleAlert()
	s.mock.ExpectExec(`INSERT INTO alerts`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "alerts_dedup_idx"})

	err := s.repo.Save(context.Background(), a)
	s.Error(err)
	s.Equal(errors.ErrCodeAlertDuplicate, errors.GetCode(err))
}

func (s *AlertRepoTestSuite) TestListForEntity() {
	now := time.Date(2023, 6, 2, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "entity_id", "alert_type", "severity", "title", "message",
		"accession_number", "combined_level", "created_at",
	}).
		AddRow("id-2", "nikola", alert.TypeInsiderCluster, "high", "insider buying cluster: 3 buyers",
			"3 distinct insiders bought $110000", "CLUSTER-nikola-2023-06-01", nil, now).
		AddRow("id-1", "nikola", alert.TypeFilingSignal, "critical", "8-K filing signal: critical",
			"bankruptcy filing", "acc-1", "critical", now.Add(-time.Hour))

	s.mock.ExpectQuery(`SELECT id, entity_id, alert_type, severity, title, message`).
		WithArgs("nikola", 10).
		WillReturnRows(rows)

	alerts, err := s.repo.ListForEntity(context.Background(), "nikola", 10)
	s.NoError(err)
	s.Len(alerts, 2)
	s.Equal("id-2", alerts[0].ID)
	s.Equal(signal.CombinedLevel(""), alerts[0].CombinedLevel)
	s.Equal(signal.CombinedCritical, alerts[1].CombinedLevel)
}

func (s *AlertRepoTestSuite) TestDeleteOlderThan() {
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectExec(`DELETE FROM alerts WHERE created_at`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := s.repo.(*postgresAlertRepo)
	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	s.NoError(err)
	s.Equal(int64(7), n)
}

func TestAlertRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AlertRepoTestSuite))
}
