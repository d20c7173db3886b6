package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.ConnectionSearchesTotal)
	assert.NotNil(t, m.ConnectionHopCount)
	assert.NotNil(t, m.RiskAssessmentsTotal)
	assert.NotNil(t, m.FilingsClassifiedTotal)
	assert.NotNil(t, m.ClustersDetectedTotal)
	assert.NotNil(t, m.AlertsRaisedTotal)
	assert.NotNil(t, m.ConsumerLag)
}

func TestRecordHTTPRequest_AllMetricsUpdated(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "GET", "/api/v1/entities/:id/risk", 200, 100*time.Millisecond, 1024, 2048)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="GET",path="/api/v1/entities/:id/risk",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_size_bytes_sum{method="GET",path="/api/v1/entities/:id/risk"} 1024`)
	assert.Contains(t, output, `test_unit_http_response_size_bytes_sum{method="GET",path="/api/v1/entities/:id/risk"} 2048`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="GET",path="/api/v1/entities/:id/risk"} 1`)
}

func TestRecordConnectionSearch_Found(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordConnectionSearch(m, 4, true, 2, 50*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_connection_searches_total{result="found"} 1`)
	assert.Contains(t, output, `test_unit_connection_search_duration_seconds_count{max_hops="4"} 1`)
	assert.Contains(t, output, `test_unit_connection_hop_count_count 1`)
}

func TestRecordConnectionSearch_NotFound(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordConnectionSearch(m, 6, false, 0, 10*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_connection_searches_total{result="not_found"} 1`)
	assert.NotContains(t, output, "test_unit_connection_hop_count_count 1")
}

func TestRecordClassification(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordClassification(m, "8-K", "high_bearish", 5*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_filings_classified_total{form_type="8-K",level="high_bearish"} 1`)
	assert.Contains(t, output, `test_unit_classification_duration_seconds_count{form_type="8-K"} 1`)
}

func TestRecordAlert_Raised(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordAlert(m, "filing_signal", "critical", false)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_alerts_raised_total{alert_type="filing_signal",severity="critical"} 1`)
}

func TestRecordAlert_Suppressed(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordAlert(m, "filing_signal", "critical", true)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_alerts_suppressed_total{alert_type="filing_signal"} 1`)
	assert.NotContains(t, output, "test_unit_alerts_raised_total{")
}

func TestRecordDBQuery_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "select", 10*time.Millisecond, nil)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="select"} 1`)
}

func TestRecordDBQuery_Error(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "insert", 5*time.Millisecond, errors.New("db error"))

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="insert"} 1`)
	assert.Contains(t, output, `test_unit_errors_total{component="postgres",error_type="query_error",severity="error"} 1`)
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "redis", true)
	RecordCacheAccess(m, "redis", false)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{cache="redis"} 1`)
	assert.Contains(t, output, `test_unit_cache_misses_total{cache="redis"} 1`)
}

func TestConcurrentMetricRecording(t *testing.T) {
	m, c := newTestAppMetrics(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				RecordHTTPRequest(m, "GET", "/path", 200, time.Millisecond, 10, 10)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="GET",path="/path",status_code="200"} 1000`)
}
