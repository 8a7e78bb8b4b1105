package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	GenerationsTotal         *prometheus.CounterVec
	GenerationTokens         prometheus.Counter
	QuotaDenialsTotal        prometheus.Counter
	EntitlementFallbackTotal prometheus.Counter
	CheckoutSessionsTotal    *prometheus.CounterVec
}

// New creates and registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podnotes_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podnotes_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "podnotes_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podnotes_generations_total",
			Help: "Show notes generation attempts by outcome.",
		}, []string{"outcome"}),
		GenerationTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podnotes_generation_tokens_total",
			Help: "Total tokens reported by the generation API.",
		}),
		QuotaDenialsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podnotes_quota_denials_total",
			Help: "Generation requests denied by the free limit.",
		}),
		EntitlementFallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podnotes_entitlement_fallback_total",
			Help: "Entitlement store operations served from the in-memory fallback.",
		}),
		CheckoutSessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podnotes_checkout_sessions_total",
			Help: "Stripe checkout sessions by lifecycle event.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.GenerationsTotal,
		m.GenerationTokens,
		m.QuotaDenialsTotal,
		m.EntitlementFallbackTotal,
		m.CheckoutSessionsTotal,
	)

	return m
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
