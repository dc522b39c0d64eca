package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NMBawiskar/ros-data-publisher/component"
)

func TestStatusConstructors(t *testing.T) {
	healthy := NewHealthy("gateway", "listening")
	assert.True(t, healthy.IsHealthy())
	assert.True(t, healthy.Healthy)

	unhealthy := NewUnhealthy("producer", "child exited")
	assert.True(t, unhealthy.IsUnhealthy())
	assert.False(t, unhealthy.Healthy)

	degraded := NewDegraded("stream", "frames dropping")
	assert.True(t, degraded.IsDegraded())
	assert.False(t, degraded.Healthy)
}

func TestAggregate(t *testing.T) {
	assert.True(t, Aggregate("svc", nil).IsHealthy())

	allHealthy := Aggregate("svc", []Status{
		NewHealthy("a", ""), NewHealthy("b", ""),
	})
	assert.True(t, allHealthy.IsHealthy())
	assert.Len(t, allHealthy.SubStatuses, 2)

	withDegraded := Aggregate("svc", []Status{
		NewHealthy("a", ""), NewDegraded("b", ""),
	})
	assert.True(t, withDegraded.IsDegraded())

	withUnhealthy := Aggregate("svc", []Status{
		NewDegraded("a", ""), NewUnhealthy("b", ""),
	})
	assert.True(t, withUnhealthy.IsUnhealthy())
}

func TestMonitor(t *testing.T) {
	m := NewMonitor()
	assert.Equal(t, 0, m.Count())

	m.UpdateHealthy("gateway", "listening")
	m.UpdateUnhealthy("stream:/sensor/gps", "producer exited")

	status, ok := m.Get("gateway")
	require.True(t, ok)
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "gateway", status.Component)

	all := m.GetAll()
	assert.Len(t, all, 2)

	aggregate := m.AggregateHealth("ros-data-publisher")
	assert.True(t, aggregate.IsUnhealthy())

	m.Remove("stream:/sensor/gps")
	assert.Equal(t, 1, m.Count())
	assert.True(t, m.AggregateHealth("ros-data-publisher").IsHealthy())

	_, ok = m.Get("stream:/sensor/gps")
	assert.False(t, ok)
}

func TestFromComponentHealth(t *testing.T) {
	status := FromComponentHealth("gateway", component.HealthStatus{
		Healthy:   true,
		LastCheck: time.Now(),
		Uptime:    time.Minute,
	})
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "Component healthy", status.Message)
	require.NotNil(t, status.Metrics)
	assert.Equal(t, time.Minute, status.Metrics.Uptime)
}

func TestFromComponentHealth_SanitizesErrors(t *testing.T) {
	cases := map[string]struct {
		in       string
		contains string
		excludes string
	}{
		"url":        {"dial ws://10.0.0.5:9000 failed", "[URL]", "ws://"},
		"path":       {"open /etc/robot/creds failed", "[PATH]", "/etc"},
		"ip":         {"connect 192.168.1.100 refused", "[IP]", "192.168"},
		"credential": {"auth failed: password=hunter2", "[REDACTED]", "hunter2"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			status := FromComponentHealth("x", component.HealthStatus{
				Healthy:   false,
				LastError: tc.in,
			})
			assert.Contains(t, status.Message, tc.contains)
			assert.NotContains(t, status.Message, tc.excludes)
		})
	}
}

func TestStatus_WithSubStatusDoesNotShare(t *testing.T) {
	base := NewHealthy("svc", "")
	a := base.WithSubStatus(NewHealthy("a", ""))
	b := base.WithSubStatus(NewHealthy("b", ""))

	require.Len(t, a.SubStatuses, 1)
	require.Len(t, b.SubStatuses, 1)
	assert.Equal(t, "a", a.SubStatuses[0].Component)
	assert.Equal(t, "b", b.SubStatuses[0].Component)
}
