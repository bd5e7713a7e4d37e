package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_UpdateAndGet(t *testing.T) {
	m := NewMonitor()

	m.UpdateHealthy("transport", "connected")
	status, ok := m.Get("transport")
	require.True(t, ok)
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "transport", status.Component)
	assert.False(t, status.Timestamp.IsZero())

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMonitor_Aggregate(t *testing.T) {
	m := NewMonitor()

	m.UpdateHealthy("transport", "connected")
	m.UpdateHealthy("dispatch", "running")
	agg := m.AggregateHealth("topiclens")
	assert.True(t, agg.IsHealthy())
	assert.Len(t, agg.SubStatuses, 2)

	m.UpdateDegraded("transport", "reconnecting")
	agg = m.AggregateHealth("topiclens")
	assert.True(t, agg.IsDegraded())

	m.UpdateUnhealthy("transport", "gave up")
	agg = m.AggregateHealth("topiclens")
	assert.True(t, agg.IsUnhealthy())
	assert.False(t, agg.Healthy)
}

func TestMonitor_AggregateEmptyIsHealthy(t *testing.T) {
	m := NewMonitor()
	assert.True(t, m.AggregateHealth("topiclens").IsHealthy())
}

func TestMonitor_RemoveAndCount(t *testing.T) {
	m := NewMonitor()

	m.UpdateHealthy("a", "")
	m.UpdateHealthy("b", "")
	assert.Equal(t, 2, m.Count())

	m.Remove("a")
	assert.Equal(t, 1, m.Count())

	all := m.GetAll()
	_, ok := all["a"]
	assert.False(t, ok)
}
