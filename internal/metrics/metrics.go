package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the Atrium API.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Deal metrics.
	DealsCreatedTotal          prometheus.Counter
	DealStatusTransitionsTotal *prometheus.CounterVec
	DealStageTransitionsTotal  *prometheus.CounterVec

	// Analytics cache metrics.
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Rate limiting metrics.
	RateLimitRejectionsTotal prometheus.Counter

	// Auth metrics.
	AuthFailuresTotal  *prometheus.CounterVec
	AuthSuccessesTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atrium_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		DealsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atrium_deals_created_total",
			Help: "Total number of deals created.",
		}),

		DealStatusTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_deal_status_transitions_total",
			Help: "Total number of deal status transitions.",
		}, []string{"from", "to"}),

		DealStageTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_deal_stage_transitions_total",
			Help: "Total number of deal stage transitions.",
		}, []string{"from", "to"}),

		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_cache_hits_total",
			Help: "Total number of analytics cache hits.",
		}, []string{"report"}),

		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_cache_misses_total",
			Help: "Total number of analytics cache misses.",
		}, []string{"report"}),

		RateLimitRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atrium_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"reason"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"method"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atrium_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	// Register all metrics.
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DealsCreatedTotal,
		m.DealStatusTransitionsTotal,
		m.DealStageTransitionsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RateLimitRejectionsTotal,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.ServerStartTime,
	)

	// Set server start time.
	m.ServerStartTime.Set(float64(time.Now().Unix()))

	// Register Go runtime and process collectors.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTPRequest records one finished HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, statusCode int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(seconds)
}

// IncDealCreated increments the deals-created counter.
func (m *Metrics) IncDealCreated() {
	m.DealsCreatedTotal.Inc()
}

// IncStatusTransition increments the status transition counter.
func (m *Metrics) IncStatusTransition(from, to string) {
	m.DealStatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

// IncStageTransition increments the stage transition counter.
func (m *Metrics) IncStageTransition(from, to string) {
	m.DealStageTransitionsTotal.WithLabelValues(from, to).Inc()
}

// IncCacheHit increments the cache hit counter for a report.
func (m *Metrics) IncCacheHit(report string) {
	m.CacheHitsTotal.WithLabelValues(report).Inc()
}

// IncCacheMiss increments the cache miss counter for a report.
func (m *Metrics) IncCacheMiss(report string) {
	m.CacheMissesTotal.WithLabelValues(report).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection() {
	m.RateLimitRejectionsTotal.Inc()
}

// IncAuthFailure increments the auth failure counter for the given reason.
func (m *Metrics) IncAuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// IncAuthSuccess increments the auth success counter for the given method.
func (m *Metrics) IncAuthSuccess(method string) {
	m.AuthSuccessesTotal.WithLabelValues(method).Inc()
}
