package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AppMetrics holds the application collectors exposed on /metrics. Runtime
// and process metrics come from the standard collectors registered next to
// it. A nil *AppMetrics is valid and records nothing.
type AppMetrics struct {
	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpInFlight prometheus.Gauge

	rateLimitHits    *prometheus.CounterVec
	rateLimitAllowed *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec

	reminderCycles   *prometheus.CounterVec
	reminderDuration prometheus.Histogram
	remindersSent    prometheus.Counter
	pushDeliveries   *prometheus.CounterVec
	pushPruned       prometheus.Counter
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
}

func NewAppMetrics(registry prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpRequests: counterVec("http_requests_total", "HTTP requests by route and status", "method", "path", "status"),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Requests currently being served",
		}),

		rateLimitHits:    counterVec("rate_limit_hits_total", "Requests rejected by the rate limiter", "path", "key_type"),
		rateLimitAllowed: counterVec("rate_limit_allowed_total", "Requests let through by the rate limiter", "path", "key_type"),
		cacheHits:        counterVec("cache_hits_total", "Responses served from the response cache", "path"),
		cacheMisses:      counterVec("cache_misses_total", "Cacheable responses computed by the handler", "path"),

		reminderCycles: counterVec("reminder_cycles_total", "Reminder sweeps by result", "result"),
		reminderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_cycle_duration_seconds",
			Help:    "Duration of reminder sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminders moved from PENDING to SENT",
		}),
		pushDeliveries: counterVec("push_deliveries_total", "Web push deliveries by outcome", "outcome"),
		pushPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_subscriptions_pruned_total",
			Help: "Subscriptions deleted after a permanent delivery failure",
		}),
	}

	registry.MustRegister(
		m.httpDuration, m.httpRequests, m.httpInFlight,
		m.rateLimitHits, m.rateLimitAllowed, m.cacheHits, m.cacheMisses,
		m.reminderCycles, m.reminderDuration, m.remindersSent, m.pushDeliveries, m.pushPruned,
	)

	return m
}

func (m *AppMetrics) RecordRequest(ctx context.Context, method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}

	m.httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, path, status).Inc()
}

func (m *AppMetrics) IncrementActiveConnections(ctx context.Context) {
	if m != nil {
		m.httpInFlight.Inc()
	}
}

func (m *AppMetrics) DecrementActiveConnections(ctx context.Context) {
	if m != nil {
		m.httpInFlight.Dec()
	}
}

func (m *AppMetrics) RecordRateLimitHit(ctx context.Context, path, keyType string) {
	if m != nil {
		m.rateLimitHits.WithLabelValues(path, keyType).Inc()
	}
}

func (m *AppMetrics) RecordRateLimitAllowed(ctx context.Context, path, keyType string) {
	if m != nil {
		m.rateLimitAllowed.WithLabelValues(path, keyType).Inc()
	}
}

func (m *AppMetrics) RecordCacheHit(ctx context.Context, path string) {
	if m != nil {
		m.cacheHits.WithLabelValues(path).Inc()
	}
}

func (m *AppMetrics) RecordCacheMiss(ctx context.Context, path string) {
	if m != nil {
		m.cacheMisses.WithLabelValues(path).Inc()
	}
}

// RecordReminderCycle is called once per sweep. result is "locked" when
// another instance holds the cycle lock.
func (m *AppMetrics) RecordReminderCycle(ctx context.Context, result string, duration time.Duration) {
	if m == nil {
		return
	}

	m.reminderCycles.WithLabelValues(result).Inc()
	m.reminderDuration.Observe(duration.Seconds())
}

func (m *AppMetrics) RecordReminderSent(ctx context.Context) {
	if m != nil {
		m.remindersSent.Inc()
	}
}

func (m *AppMetrics) RecordPushDelivery(ctx context.Context, outcome string) {
	if m != nil {
		m.pushDeliveries.WithLabelValues(outcome).Inc()
	}
}

func (m *AppMetrics) RecordSubscriptionPruned(ctx context.Context) {
	if m != nil {
		m.pushPruned.Inc()
	}
}
