package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize     HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Connection Layer
	ConnectionSearchesTotal  CounterVec
	ConnectionSearchDuration HistogramVec
	ConnectionHopCount       HistogramVec

	// Risk Layer
	RiskAssessmentsTotal   CounterVec
	RiskAssessmentDuration HistogramVec
	RiskDetectorHitsTotal  CounterVec

	// Classification Layer
	FilingsClassifiedTotal CounterVec
	ClassificationDuration HistogramVec
	SignalsCombinedTotal   CounterVec

	// Insider Cluster Layer
	ClusterScansTotal     CounterVec
	ClusterScanDuration   HistogramVec
	ClustersDetectedTotal CounterVec

	// Alert Layer
	AlertsRaisedTotal         CounterVec
	AlertsSuppressedTotal     CounterVec
	AlertPublishFailuresTotal CounterVec

	// Graph Layer
	GraphNodesTotal    GaugeVec
	GraphEdgesTotal    GaugeVec
	GraphQueryDuration HistogramVec

	// Infrastructure Layer
	DBConnectionPoolSize   GaugeVec
	DBConnectionPoolActive GaugeVec
	DBQueryDuration        HistogramVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	ConsumerLag            GaugeVec
	MessageProcessDuration HistogramVec

	// System Health
	ServiceUptime     GaugeVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSearchDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultSizeBuckets           = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
	DefaultDBDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultHopBuckets            = []float64{1, 2, 3, 4, 5, 6}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Connections
	m.ConnectionSearchesTotal = collector.RegisterCounter("connection_searches_total", "Connection searches", "result")
	m.ConnectionSearchDuration = collector.RegisterHistogram("connection_search_duration_seconds", "Connection search duration", DefaultSearchDurationBuckets, "max_hops")
	m.ConnectionHopCount = collector.RegisterHistogram("connection_hop_count", "Hops in found connections", DefaultHopBuckets)

	// Risk
	m.RiskAssessmentsTotal = collector.RegisterCounter("risk_assessments_total", "Risk profile assessments", "status")
	m.RiskAssessmentDuration = collector.RegisterHistogram("risk_assessment_duration_seconds", "Risk assessment duration", DefaultSearchDurationBuckets)
	m.RiskDetectorHitsTotal = collector.RegisterCounter("risk_detector_hits_total", "Risk factor detector hits", "detector")

	// Classification
	m.FilingsClassifiedTotal = collector.RegisterCounter("filings_classified_total", "Filings classified", "form_type", "level")
	m.ClassificationDuration = collector.RegisterHistogram("classification_duration_seconds", "Filing classification duration", DefaultHTTPDurationBuckets, "form_type")
	m.SignalsCombinedTotal = collector.RegisterCounter("signals_combined_total", "Combined signal outcomes", "level")

	// Insider clusters
	m.ClusterScansTotal = collector.RegisterCounter("cluster_scans_total", "Insider cluster scans", "status")
	m.ClusterScanDuration = collector.RegisterHistogram("cluster_scan_duration_seconds", "Insider cluster scan duration", DefaultSearchDurationBuckets)
	m.ClustersDetectedTotal = collector.RegisterCounter("clusters_detected_total", "Insider clusters detected")

	// Alerts
	m.AlertsRaisedTotal = collector.RegisterCounter("alerts_raised_total", "Alerts raised", "alert_type", "severity")
	m.AlertsSuppressedTotal = collector.RegisterCounter("alerts_suppressed_total", "Alerts suppressed as duplicates", "alert_type")
	m.AlertPublishFailuresTotal = collector.RegisterCounter("alert_publish_failures_total", "Alert publish failures")

	// Graph
	m.GraphNodesTotal = collector.RegisterGauge("graph_nodes_total", "Graph nodes total", "node_type")
	m.GraphEdgesTotal = collector.RegisterGauge("graph_edges_total", "Graph edges total", "edge_type")
	m.GraphQueryDuration = collector.RegisterHistogram("graph_query_duration_seconds", "Graph query duration", DefaultDBDurationBuckets, "query_type")

	// Infrastructure
	m.DBConnectionPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBConnectionPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.ConsumerLag = collector.RegisterGauge("consumer_lag", "Kafka consumer lag", "topic")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "topic", "event_type")

	// System Health
	m.ServiceUptime = collector.RegisterGauge("service_uptime_seconds", "Service uptime", "service")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type", "severity")

	return m
}

// RegisterAppMetrics is an alias for NewAppMetrics.
func RegisterAppMetrics(collector MetricsCollector) *AppMetrics {
	return NewAppMetrics(collector)
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func RecordConnectionSearch(metrics *AppMetrics, maxHops int, found bool, hops int, duration time.Duration) {
	result := "found"
	if !found {
		result = "not_found"
	}
	metrics.ConnectionSearchesTotal.WithLabelValues(result).Inc()
	metrics.ConnectionSearchDuration.WithLabelValues(fmt.Sprintf("%d", maxHops)).Observe(duration.Seconds())
	if found {
		metrics.ConnectionHopCount.WithLabelValues().Observe(float64(hops))
	}
}

func RecordClassification(metrics *AppMetrics, formType, level string, duration time.Duration) {
	metrics.FilingsClassifiedTotal.WithLabelValues(formType, level).Inc()
	metrics.ClassificationDuration.WithLabelValues(formType).Observe(duration.Seconds())
}

func RecordAlert(metrics *AppMetrics, alertType, severity string, suppressed bool) {
	if suppressed {
		metrics.AlertsSuppressedTotal.WithLabelValues(alertType).Inc()
		return
	}
	metrics.AlertsRaisedTotal.WithLabelValues(alertType, severity).Inc()
}

func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error", "error").Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorType, severity string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType, severity).Inc()
}
