// Package metrics provides Prometheus metrics for the scrim service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer

	// Balancing metrics.
	teamsFormed     prometheus.Counter
	balanceErrors   prometheus.Counter
	searchNodes     prometheus.Histogram
	balanceDuration prometheus.Histogram
	balanceSpread   prometheus.Histogram

	// Rating metrics.
	matchesApplied prometheus.Counter
	matchErrors    prometheus.Counter
	replays        prometheus.Counter
	replayDuration prometheus.Histogram

	// Registry metrics.
	registeredUsers prometheus.Gauge
	storedMatches   prometheus.Gauge

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collector noise.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "scrim",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.teamsFormed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams_formed_total",
		Help:      "Total number of successful team formations",
	})
	m.balanceErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_errors_total",
		Help:      "Total number of failed team formations",
	})
	m.searchNodes = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_search_nodes",
		Help:      "Search nodes expanded per team formation",
		Buckets:   prometheus.ExponentialBuckets(16, 4, 12),
	})
	m.balanceDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_duration_ms",
		Help:      "Team formation duration in milliseconds",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
	})
	m.balanceSpread = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_spread",
		Help:      "Rating spread of formed team sets",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	m.matchesApplied = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_applied_total",
		Help:      "Total number of match results applied to ratings",
	})
	m.matchErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_errors_total",
		Help:      "Total number of rejected match applications",
	})
	m.replays = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_replays_total",
		Help:      "Total number of full history replays",
	})
	m.replayDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_replay_duration_ms",
		Help:      "Full history replay duration in milliseconds",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
	})

	m.registeredUsers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registered_users",
		Help:      "Number of registered users",
	})
	m.storedMatches = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stored_matches",
		Help:      "Number of stored match records",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"endpoint", "method", "status"})
}

// Package-level helpers against the global manager.

// RecordTeamsFormed records a successful team formation.
func RecordTeamsFormed(nodes int64, durationMs, spread float64) {
	globalManager.teamsFormed.Inc()
	globalManager.searchNodes.Observe(float64(nodes))
	globalManager.balanceDuration.Observe(durationMs)
	globalManager.balanceSpread.Observe(spread)
}

// RecordBalanceError records a failed team formation.
func RecordBalanceError() {
	globalManager.balanceErrors.Inc()
}

// RecordMatchApplied records one applied match result.
func RecordMatchApplied() {
	globalManager.matchesApplied.Inc()
}

// RecordMatchError records a rejected match application.
func RecordMatchError() {
	globalManager.matchErrors.Inc()
}

// RecordReplay records a full history replay and its duration.
func RecordReplay(durationMs float64) {
	globalManager.replays.Inc()
	globalManager.replayDuration.Observe(durationMs)
}

// UpdateRegisteredUsers sets the registered user gauge.
func UpdateRegisteredUsers(count int) {
	globalManager.registeredUsers.Set(float64(count))
}

// UpdateStoredMatches sets the stored match gauge.
func UpdateStoredMatches(count int) {
	globalManager.storedMatches.Set(float64(count))
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
