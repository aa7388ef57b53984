package middleware

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/urlstate-go/urlstate/pkg/querysync"
)

// MetricsConfig configures the Prometheus metrics observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "urlstate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "urlstate",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for the sync engine.
type metrics struct {
	inboundPasses    *prometheus.CounterVec
	inboundDuration  *prometheus.HistogramVec
	paramsApplied    *prometheus.CounterVec
	paramsRecovered  *prometheus.CounterVec
	outboundPasses   *prometheus.CounterVec
	outboundDuration *prometheus.HistogramVec
	paramsSet        *prometheus.CounterVec
	paramsRemoved    *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	sessionsTotal    prometheus.Counter
	framesDropped    prometheus.Counter
	wsErrors         *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance. A single process has
// one registry but builds one manager per session, so Prometheus() must
// hand every caller the same collectors. Created on first call.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		inboundPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "inbound_passes_total",
			Help:        "Total number of completed URL hydration passes",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		inboundDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "inbound_duration_seconds",
			Help:        "URL hydration pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		paramsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "params_applied_total",
			Help:        "Total number of URL parameters applied to store fields",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		paramsRecovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "params_recovered_total",
			Help:        "Total number of URL parameters stripped during recovery",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "reason"}),

		outboundPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "outbound_passes_total",
			Help:        "Total number of completed outbound sync passes",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "result"}),

		outboundDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "outbound_duration_seconds",
			Help:        "Outbound sync pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		paramsSet: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "params_set_total",
			Help:        "Total number of URL parameters written by outbound passes",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		paramsRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "params_removed_total",
			Help:        "Total number of URL parameters removed as redundant",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_total",
			Help:        "Total number of sessions created",
			ConstLabels: config.ConstLabels,
		}),

		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_dropped_total",
			Help:        "Total number of outbound frames dropped on full send queues",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates a querysync.Observer that collects Prometheus
// metrics for every sync pass.
//
// Metrics collected:
//   - urlstate_inbound_passes_total: Counter of hydration passes by store
//   - urlstate_inbound_duration_seconds: Histogram of hydration duration
//   - urlstate_params_applied_total: Counter of parameters applied to fields
//   - urlstate_params_recovered_total: Counter of stripped parameters by reason
//   - urlstate_outbound_passes_total: Counter of outbound passes by store and result
//   - urlstate_outbound_duration_seconds: Histogram of outbound pass duration
//   - urlstate_params_set_total: Counter of parameters written to the URL
//   - urlstate_params_removed_total: Counter of parameters removed as redundant
//   - urlstate_active_sessions: Gauge of active sessions (via Record hooks)
//   - urlstate_sessions_total: Counter of sessions created
//   - urlstate_frames_dropped_total: Counter of dropped outbound frames
//   - urlstate_websocket_errors_total: Counter of WebSocket errors
//
// The underlying collectors are registered once per process; later calls
// reuse them, so the observer can be built inside per-session wiring.
//
// Example:
//
//	metrics := middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	)
//	srv.OnSession(func(sess *server.Session) {
//	    mgr := querysync.NewManager(sess, querysync.WithObserver(metrics))
//	    ...
//	})
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) querysync.Observer {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return &promObserver{m: m}
}

// promObserver feeds sync pass notifications into Prometheus collectors.
type promObserver struct {
	m *metrics
}

var _ querysync.Observer = (*promObserver)(nil)

func (o *promObserver) InboundDone(store string, applied, recovered int, elapsed time.Duration) {
	o.m.inboundPasses.WithLabelValues(store).Inc()
	o.m.inboundDuration.WithLabelValues(store).Observe(elapsed.Seconds())
	if applied > 0 {
		o.m.paramsApplied.WithLabelValues(store).Add(float64(applied))
	}
}

func (o *promObserver) OutboundDone(store string, set, removed int, pushed bool, elapsed time.Duration) {
	result := "noop"
	if pushed {
		result = "push"
	}
	o.m.outboundPasses.WithLabelValues(store, result).Inc()
	o.m.outboundDuration.WithLabelValues(store).Observe(elapsed.Seconds())
	if set > 0 {
		o.m.paramsSet.WithLabelValues(store).Add(float64(set))
	}
	if removed > 0 {
		o.m.paramsRemoved.WithLabelValues(store).Add(float64(removed))
	}
}

func (o *promObserver) ParamRecovered(store, param string, reason querysync.Reason) {
	o.m.paramsRecovered.WithLabelValues(store, string(reason)).Inc()
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// RecordSessionCreate records a new session creation. Wire it into the
// session manager's create callback.
func RecordSessionCreate() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Inc()
		globalMetrics.sessionsTotal.Inc()
	}
}

// RecordSessionClose records a session teardown.
func RecordSessionClose() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Dec()
	}
}

// RecordFrameDropped records an outbound frame dropped on a full queue.
func RecordFrameDropped() {
	if globalMetrics != nil {
		globalMetrics.framesDropped.Inc()
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if globalMetrics != nil {
		globalMetrics.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// =============================================================================
// Metrics Collector
// =============================================================================

// Collector exposes the engine metrics for custom registrations and
// assertions.
type Collector struct {
	inboundPasses    *prometheus.CounterVec
	inboundDuration  *prometheus.HistogramVec
	paramsApplied    *prometheus.CounterVec
	paramsRecovered  *prometheus.CounterVec
	outboundPasses   *prometheus.CounterVec
	outboundDuration *prometheus.HistogramVec
	paramsSet        *prometheus.CounterVec
	paramsRemoved    *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	sessionsTotal    prometheus.Counter
	framesDropped    prometheus.Counter
	wsErrors         *prometheus.CounterVec
}

// GetMetrics returns the global metrics collector.
// Returns nil if the Prometheus observer has not been initialized.
func GetMetrics() *Collector {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		return nil
	}
	return &Collector{
		inboundPasses:    globalMetrics.inboundPasses,
		inboundDuration:  globalMetrics.inboundDuration,
		paramsApplied:    globalMetrics.paramsApplied,
		paramsRecovered:  globalMetrics.paramsRecovered,
		outboundPasses:   globalMetrics.outboundPasses,
		outboundDuration: globalMetrics.outboundDuration,
		paramsSet:        globalMetrics.paramsSet,
		paramsRemoved:    globalMetrics.paramsRemoved,
		activeSessions:   globalMetrics.activeSessions,
		sessionsTotal:    globalMetrics.sessionsTotal,
		framesDropped:    globalMetrics.framesDropped,
		wsErrors:         globalMetrics.wsErrors,
	}
}
