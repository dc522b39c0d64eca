package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NMBawiskar/ros-data-publisher/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()
	require.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())

	// Core metrics plus runtime collectors are gatherable immediately.
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stream_test_counter",
		Help: "test counter",
	})
	require.NoError(t, registry.RegisterCounter("stream", "test_counter", counter))

	counter.Add(3)
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "stream_test_counter" {
			found = true
			assert.Equal(t, float64(3), fam.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "registered counter should be gatherable")
}

func TestMetricsRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stream_test_gauge",
		Help: "test gauge",
	})
	require.NoError(t, registry.RegisterGauge("stream", "test_gauge", gauge))

	err := registry.RegisterGauge("stream", "test_gauge", gauge)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRegistry_PrometheusConflict(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stream_conflicting_total",
		Help: "test",
	})
	second := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stream_conflicting_total",
		Help: "test",
	})
	require.NoError(t, registry.RegisterCounter("a", "conflicting", first))

	// Same fully-qualified name under a different key trips Prometheus.
	err := registry.RegisterCounter("b", "conflicting", second)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRegistry_RegisterVecKinds(t *testing.T) {
	registry := NewMetricsRegistry()

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_vec_counter_total",
		Help: "test",
	}, []string{"topic"})
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stream_vec_gauge",
		Help: "test",
	}, []string{"topic"})
	histogramVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "stream_vec_histogram",
		Help: "test",
	}, []string{"topic"})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "stream_plain_histogram",
		Help: "test",
	})

	assert.NoError(t, registry.RegisterCounterVec("stream", "vec_counter", counterVec))
	assert.NoError(t, registry.RegisterGaugeVec("stream", "vec_gauge", gaugeVec))
	assert.NoError(t, registry.RegisterHistogramVec("stream", "vec_histogram", histogramVec))
	assert.NoError(t, registry.RegisterHistogram("stream", "plain_histogram", histogram))
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stream_removable_total",
		Help: "test",
	})
	require.NoError(t, registry.RegisterCounter("stream", "removable", counter))

	assert.True(t, registry.Unregister("stream", "removable"))
	assert.False(t, registry.Unregister("stream", "removable"))

	// Slot is free for re-registration after unregister.
	assert.NoError(t, registry.RegisterCounter("stream", "removable", counter))
}

func TestCoreMetrics_Recorders(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordServiceStatus("gateway", 2)
	core.RecordEventDelivered("gateway", "sse")
	core.RecordClientConnected("gateway", "websocket", 1)
	core.RecordClientConnected("gateway", "websocket", -1)
	core.RecordRequestDuration("gateway", "/topics", 5*time.Millisecond)
	core.RecordError("gateway", "transient")
	core.RecordHealthStatus("gateway", true)
	core.RecordProducerSpawned()
	core.RecordProducerTornDown()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
