package peer

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics for a Sender/Receiver
// pair.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "typewire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for exchange durations.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics construction.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "typewire",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus instruments for message exchanges. One
// Metrics instance may be shared by a Sender and a Receiver, or by several
// of either.
//
// Instruments:
//   - typewire_sends_total: counter of sends by result
//   - typewire_send_duration_seconds: histogram of send round-trip duration
//   - typewire_dispatches_total: counter of inbound dispatches by result
//   - typewire_dispatch_duration_seconds: histogram of dispatch duration
type Metrics struct {
	sendsTotal       *prometheus.CounterVec
	sendDuration     prometheus.Histogram
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
}

// NewMetrics creates and registers the typewire instruments.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		sendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sends_total",
			Help:        "Total number of message sends by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		sendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "send_duration_seconds",
			Help:        "Send round-trip duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of inbound dispatches by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		dispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Inbound dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

func (m *Metrics) observeSend(err error, d time.Duration) {
	m.sendsTotal.WithLabelValues(sendResult(err)).Inc()
	m.sendDuration.Observe(d.Seconds())
}

func (m *Metrics) observeDispatch(result string, d time.Duration) {
	m.dispatchesTotal.WithLabelValues(result).Inc()
	m.dispatchDuration.Observe(d.Seconds())
}

func sendResult(err error) string {
	if err == nil {
		return "ok"
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return "remote_error"
	}
	var mismatch *MismatchError
	if errors.As(err, &mismatch) {
		return "mismatch"
	}
	return "error"
}
