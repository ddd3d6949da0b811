package services

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts backend calls by route template so ids never become label values.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	imports  *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors with reg.
// A nil reg gets a private registry, which keeps repeated construction in tests safe.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figx_backend_requests_total",
				Help: "Backend requests by route template, method and status",
			},
			[]string{"route", "method", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "figx_backend_request_duration_seconds",
				Help:    "Backend request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figx_imports_total",
				Help: "External catalog imports by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// observe records one request. status 0 means no response arrived.
func (m *Metrics) observe(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(route, method, label).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveImport counts one import outcome ("imported", "skipped", "failed").
func (m *Metrics) ObserveImport(outcome string) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(outcome).Inc()
}
