package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not stream-specific)
type Metrics struct {
	// Service metrics
	ServiceStatus     *prometheus.GaugeVec
	EventsDelivered   *prometheus.CounterVec
	ClientsConnected  *prometheus.GaugeVec
	RequestDuration   *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	HealthCheckStatus *prometheus.GaugeVec

	// Producer process metrics
	ProducersRunning  prometheus.Gauge
	ProducerSpawns    prometheus.Counter
	ProducerTeardowns prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Service metrics
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "rosdatapub",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		EventsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rosdatapub",
				Subsystem: "events",
				Name:      "delivered_total",
				Help:      "Total number of telemetry events delivered to clients",
			},
			[]string{"service", "transport"},
		),

		ClientsConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "rosdatapub",
				Subsystem: "clients",
				Name:      "connected",
				Help:      "Number of currently connected streaming clients",
			},
			[]string{"service", "transport"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "rosdatapub",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "route"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rosdatapub",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "rosdatapub",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		// Producer process metrics
		ProducersRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rosdatapub",
				Subsystem: "producer",
				Name:      "running",
				Help:      "Number of producer child processes currently running",
			},
		),

		ProducerSpawns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rosdatapub",
				Subsystem: "producer",
				Name:      "spawns_total",
				Help:      "Total number of producer child processes spawned",
			},
		),

		ProducerTeardowns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rosdatapub",
				Subsystem: "producer",
				Name:      "teardowns_total",
				Help:      "Total number of producer child processes torn down",
			},
		),
	}
}

// RecordServiceStatus updates service status metric
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordEventDelivered increments the delivered event counter
func (c *Metrics) RecordEventDelivered(service, transport string) {
	c.EventsDelivered.WithLabelValues(service, transport).Inc()
}

// RecordClientConnected adjusts the connected client gauge
func (c *Metrics) RecordClientConnected(service, transport string, delta int) {
	c.ClientsConnected.WithLabelValues(service, transport).Add(float64(delta))
}

// RecordRequestDuration records request handling time
func (c *Metrics) RecordRequestDuration(service, route string, duration time.Duration) {
	c.RequestDuration.WithLabelValues(service, route).Observe(duration.Seconds())
}

// RecordError increments error counter
func (c *Metrics) RecordError(service, errorType string) {
	c.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(service).Set(value)
}

// RecordProducerSpawned tracks a new producer child process
func (c *Metrics) RecordProducerSpawned() {
	c.ProducerSpawns.Inc()
	c.ProducersRunning.Inc()
}

// RecordProducerTornDown tracks a producer child process ending
func (c *Metrics) RecordProducerTornDown() {
	c.ProducerTeardowns.Inc()
	c.ProducersRunning.Dec()
}
