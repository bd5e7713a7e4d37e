package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg.Platform)

	reg.Platform.MessagesReceived.Inc()
	reg.Platform.BytesReceived.Add(42)
	reg.Platform.EventsTotal.WithLabelValues("message").Inc()
	reg.Platform.ConnectionState.Set(2)
	reg.Platform.DevicesByStatus.WithLabelValues("healthy").Set(3)

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["topiclens_messages_received_total"])
	assert.True(t, names["topiclens_transport_connection_state"])
	assert.True(t, names["topiclens_devices_by_status"])
}
