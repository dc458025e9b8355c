// Package metrics holds the Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec // labels: route, method, status
	RequestDuration *prometheus.HistogramVec
	UpstreamTotal   *prometheus.CounterVec // labels: op, outcome
	GuardDecisions  *prometheus.CounterVec // labels: outcome
	RateLimited     prometheus.Counter
}

// New registers and returns all gateway metrics on a private registry so
// multiple instances (tests included) never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradegate_requests_total",
			Help: "Total HTTP requests served (by route, method, status)",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradegate_request_duration_seconds",
			Help:    "HTTP request handling latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		UpstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradegate_upstream_requests_total",
			Help: "Total calls to the upstream brokerage API (by operation, outcome)",
		}, []string{"op", "outcome"}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradegate_guard_decisions_total",
			Help: "Funds-guard outcomes (sufficient, insufficient, error)",
		}, []string{"outcome"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradegate_rate_limited_total",
			Help: "Requests rejected by the inbound rate limiter",
		}),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.UpstreamTotal,
		m.GuardDecisions,
		m.RateLimited,
	)

	return m
}

// Handler returns the /metrics scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveUpstream records one upstream brokerage call.
func (m *Metrics) ObserveUpstream(op, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveGuard records one funds-guard decision.
func (m *Metrics) ObserveGuard(outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(outcome).Inc()
}
