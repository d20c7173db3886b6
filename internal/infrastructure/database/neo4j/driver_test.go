package neo4j

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// scriptedSession fails its first N executions with a transport error,
// then succeeds.
type scriptedSession struct {
	failures *int
	closed   *int
}

func (s *scriptedSession) run(work func(Transaction) (any, error)) (any, error) {
	if *s.failures > 0 {
		*s.failures--
		return nil, fmt.Errorf("connection reset by peer")
	}
	return work(&healthTransaction{})
}

func (s *scriptedSession) ExecuteRead(_ context.Context, work func(Transaction) (any, error)) (any, error) {
	return s.run(work)
}

func (s *scriptedSession) ExecuteWrite(_ context.Context, work func(Transaction) (any, error)) (any, error) {
	return s.run(work)
}

func (s *scriptedSession) Close(context.Context) error {
	*s.closed++
	return nil
}

type scriptedDriver struct {
	failures     int
	closed       int
	connectivity error
	closeCalls   int
}

func (d *scriptedDriver) VerifyConnectivity(context.Context) error { return d.connectivity }

func (d *scriptedDriver) NewSession(context.Context, neo4j.SessionConfig) internalSession {
	return &scriptedSession{failures: &d.failures, closed: &d.closed}
}

func (d *scriptedDriver) Close(context.Context) error {
	d.closeCalls++
	return nil
}

// healthTransaction answers every query with a single-value record.
type healthTransaction struct{}

func (t *healthTransaction) Run(context.Context, string, map[string]any) (Result, error) {
	return &healthResult{}, nil
}

type healthResult struct {
	consumed bool
}

func (r *healthResult) Next(context.Context) bool {
	if r.consumed {
		return false
	}
	r.consumed = true
	return true
}

func (r *healthResult) Record() *neo4j.Record {
	return &neo4j.Record{Values: []any{int64(1)}}
}

func (r *healthResult) Err() error { return nil }

func (r *healthResult) Consume(context.Context) (neo4j.ResultSummary, error) { return nil, nil }

func newTestDriver(fake *scriptedDriver) *Driver {
	return &Driver{
		driver:       fake,
		logger:       logging.NewNopLogger(),
		maxRetries:   3,
		retryBackoff: time.Millisecond,
	}
}

func TestExecuteReadRetriesTransportErrors(t *testing.T) {
	fake := &scriptedDriver{failures: 2}
	d := newTestDriver(fake)

	res, err := d.ExecuteRead(context.Background(), func(tx Transaction) (interface{}, error) {
		result, err := tx.Run(context.Background(), "RETURN 1", nil)
		if err != nil {
			return nil, err
		}
		result.Next(context.Background())
		return result.Record().Values[0], nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res)
	// every attempt's session is closed, including the failed ones
	assert.Equal(t, 3, fake.closed)
}

func TestExecuteReadGivesUpAfterMaxRetries(t *testing.T) {
	fake := &scriptedDriver{failures: 100}
	d := newTestDriver(fake)

	_, err := d.ExecuteRead(context.Background(), func(tx Transaction) (interface{}, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreUnavailable, errors.GetCode(err))
}

func TestExecuteReadDoesNotRetryAppErrors(t *testing.T) {
	fake := &scriptedDriver{}
	d := newTestDriver(fake)

	notFound := errors.New(errors.ErrCodeEntityNotFound, "entity x not found")
	_, err := d.ExecuteRead(context.Background(), func(tx Transaction) (interface{}, error) {
		return nil, notFound
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEntityNotFound, errors.GetCode(err))
	assert.Equal(t, 1, fake.closed)
}

func TestExecuteWriteWrapsTransportError(t *testing.T) {
	fake := &scriptedDriver{failures: 1}
	d := newTestDriver(fake)

	_, err := d.ExecuteWrite(context.Background(), func(tx Transaction) (interface{}, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreUnavailable, errors.GetCode(err))
	// writes are not retried
	assert.Equal(t, 1, fake.closed)
}

func TestHealthCheck(t *testing.T) {
	d := newTestDriver(&scriptedDriver{})
	assert.NoError(t, d.HealthCheck(context.Background()))
}

func TestHealthCheckConnectivityFailure(t *testing.T) {
	fake := &scriptedDriver{connectivity: fmt.Errorf("dial tcp: connection refused")}
	d := newTestDriver(fake)

	err := d.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreUnavailable, errors.GetCode(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := &scriptedDriver{}
	d := newTestDriver(fake)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 1, fake.closeCalls)
}
