package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// PlatformMetrics contains the platform-level Prometheus metrics
// updated by the dispatcher and the transport.
type PlatformMetrics struct {
	MessagesReceived   prometheus.Counter
	BytesReceived      prometheus.Counter
	EventsTotal        *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	ConnectionState    prometheus.Gauge
	Reconnects         prometheus.Counter
	ConsecutiveFails   prometheus.Gauge
	SchemaChanges      prometheus.Counter
	TrackedSeries      prometheus.Gauge
	DevicesByStatus    *prometheus.GaugeVec
}

// Registry manages the Prometheus registry and platform metrics.
type Registry struct {
	prom     *prometheus.Registry
	Platform *PlatformMetrics
}

// NewRegistry creates a registry with all platform metrics and Go
// runtime collectors registered.
func NewRegistry() *Registry {
	prom := prometheus.NewRegistry()

	platform := &PlatformMetrics{
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topiclens",
			Subsystem: "messages",
			Name:      "received_total",
			Help:      "Total number of messages received",
		}),

		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topiclens",
			Subsystem: "messages",
			Name:      "bytes_total",
			Help:      "Total payload bytes received",
		}),

		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topiclens",
			Subsystem: "events",
			Name:      "total",
			Help:      "Total number of inbound events by type",
		}, []string{"type"}),

		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "topiclens",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Message fan-out duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "topiclens",
			Subsystem: "transport",
			Name:      "connection_state",
			Help:      "Connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)",
		}),

		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topiclens",
			Subsystem: "transport",
			Name:      "reconnects_total",
			Help:      "Total number of successful reconnections",
		}),

		ConsecutiveFails: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "topiclens",
			Subsystem: "transport",
			Name:      "consecutive_failures",
			Help:      "Current consecutive connection failures",
		}),

		SchemaChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topiclens",
			Subsystem: "schema",
			Name:      "changes_total",
			Help:      "Total number of detected schema changes",
		}),

		TrackedSeries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "topiclens",
			Subsystem: "metrics",
			Name:      "tracked_series",
			Help:      "Number of tracked metric series",
		}),

		DevicesByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "topiclens",
			Subsystem: "devices",
			Name:      "by_status",
			Help:      "Known devices by health status",
		}, []string{"status"}),
	}

	prom.MustRegister(
		platform.MessagesReceived,
		platform.BytesReceived,
		platform.EventsTotal,
		platform.ProcessingDuration,
		platform.ConnectionState,
		platform.Reconnects,
		platform.ConsecutiveFails,
		platform.SchemaChanges,
		platform.TrackedSeries,
		platform.DevicesByStatus,
	)

	prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{prom: prom, Platform: platform}
}

// PrometheusRegistry returns the underlying Prometheus registry for
// exposition via promhttp.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}
