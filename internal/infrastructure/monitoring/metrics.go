package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/turtacn/kpidash/pkg/constants"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	RateLimitDecisions   *prometheus.CounterVec
	RateLimitStoreErrors *prometheus.CounterVec
	AuthResolutions      *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPActiveRequests   prometheus.Gauge
}

// NewMetrics creates the metrics and registers them, together with the Go and
// process collectors, on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kpidash_rate_limit_decisions_total",
				Help: "Admission decisions by route tier and outcome.",
			},
			[]string{"tier", "outcome"},
		),
		RateLimitStoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kpidash_rate_limit_store_errors_total",
				Help: "Counter store failures that caused a fail-open admission.",
			},
			[]string{"backend"},
		),
		AuthResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kpidash_auth_resolutions_total",
				Help: "Auth context resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kpidash_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		HTTPActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kpidash_http_active_requests",
			Help: "Requests currently being served.",
		}),
	}
	m.registry.MustRegister(
		m.RateLimitDecisions,
		m.RateLimitStoreErrors,
		m.AuthResolutions,
		m.HTTPRequestDuration,
		m.HTTPActiveRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordDecision implements the admission metrics sink.
func (m *Metrics) RecordDecision(tier constants.RouteTier, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	m.RateLimitDecisions.WithLabelValues(string(tier), outcome).Inc()
}

// RecordStoreError implements the admission metrics sink.
func (m *Metrics) RecordStoreError(backend string) {
	m.RateLimitStoreErrors.WithLabelValues(backend).Inc()
}

// RecordResolution implements the auth metrics sink.
func (m *Metrics) RecordResolution(outcome string) {
	m.AuthResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ActiveRequestsInc() { m.HTTPActiveRequests.Inc() }
func (m *Metrics) ActiveRequestsDec() { m.HTTPActiveRequests.Dec() }

// ObserveRequestDuration records one served request. route is the matched
// route template, never the raw path.
func (m *Metrics) ObserveRequestDuration(route string, status int, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
