package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Extraction outcomes
const (
	extractFound    = "found"
	extractNotFound = "not_found"
	extractError    = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Document metrics
	documentOperationsTotal   *prometheus.CounterVec
	documentOperationDuration *prometheus.HistogramVec
	archiveDocuments          prometheus.Gauge
	extractionsTotal          *prometheus.CounterVec
	capacityViolationsTotal   prometheus.Counter

	authRequestsTotal *prometheus.CounterVec
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates the API metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdds_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sdds_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sdds_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		documentOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdds_document_operations_total",
				Help: "Total number of document operations",
			},
			[]string{"operation", "status"},
		),

		documentOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sdds_document_operation_duration_seconds",
				Help:    "Document operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		archiveDocuments: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sdds_archive_documents",
				Help: "Number of documents in the archive",
			},
		),

		extractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdds_field_extractions_total",
				Help: "Field extractions by document kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		capacityViolationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sdds_capacity_violations_total",
				Help: "Builds or extractions that did not fit their fixed buffer",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdds_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdds_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}
}

func statusLabel(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDocumentOperation records an archive or codec operation
func (m *Metrics) RecordDocumentOperation(operation string, success bool, duration time.Duration) {
	m.documentOperationsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
	m.documentOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetArchiveDocuments updates the archive size gauge
func (m *Metrics) SetArchiveDocuments(n int) {
	m.archiveDocuments.Set(float64(n))
}

// RecordExtraction records the outcome of a single field lookup
func (m *Metrics) RecordExtraction(kind, outcome string) {
	m.extractionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordCapacityViolation counts a fixed buffer overflow
func (m *Metrics) RecordCapacityViolation() {
	m.capacityViolationsTotal.Inc()
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	m.healthChecksTotal.WithLabelValues(statusLabel(success)).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware counts authentication outcomes of requests that
// carry an API key
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
