// Package metrics provides Prometheus metrics for the team-formation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	solveRequests       *prometheus.CounterVec
	solveDuration       prometheus.Histogram
	solveIncumbents     prometheus.Counter
	solveObjectiveValue prometheus.Gauge
	solveTerminal       *prometheus.CounterVec
	compileDuration     prometheus.Histogram
	activeSolves        prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec

	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workersActive prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teamform",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.solveRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "solve_requests_total",
			Help:      "Total number of solve requests by outcome",
		},
		[]string{"status"},
	)

	m.solveDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solve_duration_seconds",
		Help:      "Wall-clock time from search-driver start to terminal record",
		Buckets:   m.histogramBuckets,
	})

	m.solveIncumbents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solve_incumbents_total",
		Help:      "Total number of progress records delivered to a subscriber",
	})

	m.solveObjectiveValue = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solve_objective_value",
		Help:      "Objective value of the last reported incumbent for the in-flight solve",
	})

	m.solveTerminal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "solve_terminal_total",
			Help:      "Total number of terminal outcomes by kind",
		},
		[]string{"kind"},
	)

	m.compileDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compile_duration_seconds",
		Help:      "Wall time spent in the normalizer, compiler, and model builder",
		Buckets:   m.histogramBuckets,
	})

	m.activeSolves = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_solves",
		Help:      "Number of solves currently in flight",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds by endpoint, method, and status",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "size",
		Help:      "Current number of solve requests waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "capacity",
		Help:      "Configured maximum size of the solve-request queue",
	})

	m.workersActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "active_count",
		Help:      "Number of solver workers currently running",
	})
}

// RecordSolveRequest increments the solve-request counter for status
// ("accepted" or "rejected").
func RecordSolveRequest(status string) {
	globalManager.solveRequests.WithLabelValues(status).Inc()
}

// RecordSolveDuration records total solve wall-clock time in seconds.
func RecordSolveDuration(seconds float64) {
	globalManager.solveDuration.Observe(seconds)
}

// RecordSolveIncumbent increments the incumbent counter and updates the
// last-seen objective gauge.
func RecordSolveIncumbent(objective float64) {
	globalManager.solveIncumbents.Inc()
	globalManager.solveObjectiveValue.Set(objective)
}

// ResetSolveObjective resets the objective gauge at the start of a new solve.
func ResetSolveObjective() {
	globalManager.solveObjectiveValue.Set(0)
}

// RecordSolveTerminal increments the terminal-outcome counter for kind.
func RecordSolveTerminal(kind string) {
	globalManager.solveTerminal.WithLabelValues(kind).Inc()
}

// RecordCompileDuration records model-construction wall time in seconds.
func RecordCompileDuration(seconds float64) {
	globalManager.compileDuration.Observe(seconds)
}

// IncActiveSolves increments the in-flight solve gauge.
func IncActiveSolves() {
	globalManager.activeSolves.Inc()
}

// DecActiveSolves decrements the in-flight solve gauge.
func DecActiveSolves() {
	globalManager.activeSolves.Dec()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordHTTPRequest increments the HTTP request counter for endpoint/method/status.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// UpdateQueueSize sets the current solve-request queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the configured solve-request queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkersActive sets the number of running solver workers.
func UpdateWorkersActive(n int) {
	globalManager.workersActive.Set(float64(n))
}
