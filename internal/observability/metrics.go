package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpErrors      *prometheus.CounterVec
	provisionsMade  prometheus.Counter
	transitionTried *prometheus.CounterVec
}

// NewMetrics registers all collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provision_service_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provision_service_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provision_service_http_errors_total",
			Help: "Errors surfaced to callers by path and error code.",
		}, []string{"method", "path", "code"}),
		provisionsMade: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provision_service_provisions_created_total",
			Help: "Total provisions created.",
		}),
		transitionTried: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provision_service_transitions_total",
			Help: "Status transition attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// RecordRequest observes a finished HTTP request.
func (m *Metrics) RecordRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordError counts an error response.
func (m *Metrics) RecordError(method, path, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, path, code).Inc()
}

// RecordProvisionCreated counts a newly requested provision.
func (m *Metrics) RecordProvisionCreated() {
	if m == nil {
		return
	}
	m.provisionsMade.Inc()
}

// RecordTransition counts a status transition attempt. Outcome is one of
// "accepted", "rejected" or "conflict".
func (m *Metrics) RecordTransition(outcome string) {
	if m == nil {
		return
	}
	m.transitionTried.WithLabelValues(outcome).Inc()
}
