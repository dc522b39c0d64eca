package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/NMBawiskar/ros-data-publisher/metric"
)

// Metrics holds Prometheus metrics shared by all stream pipelines.
// Per-topic series are split with a "topic" label so one registration
// serves every concurrent stream.
type Metrics struct {
	linesReceived   *prometheus.CounterVec
	malformedLines  *prometheus.CounterVec
	framesCompleted *prometheus.CounterVec
	framesDropped   *prometheus.CounterVec
	eventsEmitted   *prometheus.CounterVec
	errorEvents     *prometheus.CounterVec
	spawnFailures   *prometheus.CounterVec
	producerExits   *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	activeStreams   prometheus.Gauge
}

// NewMetrics creates and registers pipeline metrics.
func NewMetrics(registry *metric.MetricsRegistry) *Metrics {
	// Nil registry = metrics disabled (nil input = nil feature pattern)
	if registry == nil {
		return nil
	}

	topicLabel := []string{"topic"}
	m := &Metrics{
		linesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "lines_received_total",
			Help:      "Producer stdout lines forwarded to the parser",
		}, topicLabel),
		malformedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "malformed_lines_total",
			Help:      "Lines dropped for failing the key/value grammar",
		}, topicLabel),
		framesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "frames_completed_total",
			Help:      "Complete message frames produced by the parser",
		}, topicLabel),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "frames_dropped_total",
			Help:      "Frames displaced by a fresher frame before emission",
		}, topicLabel),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "events_emitted_total",
			Help:      "Data events delivered to stream consumers",
		}, topicLabel),
		errorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "error_events_total",
			Help:      "Error events delivered to stream consumers",
		}, topicLabel),
		spawnFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "spawn_failures_total",
			Help:      "Producer processes that failed to start",
		}, topicLabel),
		producerExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "producer_exits_total",
			Help:      "Producer processes that exited mid-stream",
		}, topicLabel),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one read cycle",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rosdatapub",
			Subsystem: "pipeline",
			Name:      "active_streams",
			Help:      "Stream pipelines currently running",
		}),
	}

	const serviceName = "pipeline"
	_ = registry.RegisterCounterVec(serviceName, "lines_received", m.linesReceived)
	_ = registry.RegisterCounterVec(serviceName, "malformed_lines", m.malformedLines)
	_ = registry.RegisterCounterVec(serviceName, "frames_completed", m.framesCompleted)
	_ = registry.RegisterCounterVec(serviceName, "frames_dropped", m.framesDropped)
	_ = registry.RegisterCounterVec(serviceName, "events_emitted", m.eventsEmitted)
	_ = registry.RegisterCounterVec(serviceName, "error_events", m.errorEvents)
	_ = registry.RegisterCounterVec(serviceName, "spawn_failures", m.spawnFailures)
	_ = registry.RegisterCounterVec(serviceName, "producer_exits", m.producerExits)
	_ = registry.RegisterHistogram(serviceName, "cycle_duration", m.cycleDuration)
	_ = registry.RegisterGauge(serviceName, "active_streams", m.activeStreams)

	return m
}
