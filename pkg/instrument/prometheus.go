package instrument

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus build instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fluxbind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for build duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus build instrumentation.
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
		Namespace:   "fluxbind",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// Metrics implements fluxbind.Instrumentation on top of Prometheus.
//
// Metrics collected:
//   - fluxbind_builds_total: Counter of completed builds by owner kind
//   - fluxbind_build_duration_seconds: Histogram of build duration by owner kind
//
// Builds are synchronous and nest, so start times form a stack: Begin
// pushes, End pops.
type Metrics struct {
	buildsTotal   *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec

	starts   []time.Time
	startsMu sync.Mutex
}

// Prometheus creates Prometheus-backed build instrumentation.
//
// Example:
//
//	fluxbind.SetInstrumentation(instrument.Prometheus(
//	    instrument.WithNamespace("myapp"),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	return &Metrics{
		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "builds_total",
			Help:        "Total number of completed state builds",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		buildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "build_duration_seconds",
			Help:        "State build duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),
	}
}

// BeginBuildState pushes the build start time.
func (m *Metrics) BeginBuildState() {
	m.startsMu.Lock()
	m.starts = append(m.starts, time.Now())
	m.startsMu.Unlock()
}

// EndBuildState records the completed build for the given owner kind.
// Without a matching Begin (e.g. after an earlier build fault unwound past
// its End), only the counter is incremented.
func (m *Metrics) EndBuildState(ownerKind string) {
	var start time.Time
	m.startsMu.Lock()
	if n := len(m.starts); n > 0 {
		start = m.starts[n-1]
		m.starts = m.starts[:n-1]
	}
	m.startsMu.Unlock()

	m.buildsTotal.WithLabelValues(ownerKind).Inc()
	if !start.IsZero() {
		m.buildDuration.WithLabelValues(ownerKind).Observe(time.Since(start).Seconds())
	}
}
