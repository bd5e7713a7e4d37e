package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(t *testing.T) (*Tracker, *fakeClock) {
	t.Helper()
	tracker, err := NewTracker(DefaultConfig())
	require.NoError(t, err)
	clock := newFakeClock()
	tracker.now = clock.now
	return tracker, clock
}

func TestParsePattern(t *testing.T) {
	_, err := ParsePattern("telemetry/{id}/{type}")
	assert.NoError(t, err)

	_, err = ParsePattern("telemetry/+/data")
	assert.Error(t, err, "pattern without {id} is rejected")

	_, err = ParsePattern("{id}/{id}")
	assert.Error(t, err)
}

func TestPattern_Extract(t *testing.T) {
	tracker, _ := newTestTracker(t)

	tests := []struct {
		topic     string
		wantID    string
		wantType  string
		wantMatch bool
	}{
		{"telemetry/sensor-1/meter", "sensor-1", "meter", true},
		{"telemetry/sensor-1/meter/extra", "sensor-1", "meter", true},
		{"telemetry/sensor-1", "sensor-1", "", true},
		{"devices/pump-3", "pump-3", "", true},
		{"devices/pump-3/status", "pump-3", "", true},
		{"sites/plant-a/devices/valve-7", "valve-7", "", true},
		{"sites/plant-a/sensors/valve-7", "", "", false},
		{"weather/oslo/temperature", "", "", false},
		{"telemetry", "", "", false},
	}
	for _, tt := range tests {
		id, deviceType, ok := tracker.extract(tt.topic)
		assert.Equal(t, tt.wantMatch, ok, tt.topic)
		assert.Equal(t, tt.wantID, id, tt.topic)
		assert.Equal(t, tt.wantType, deviceType, tt.topic)
	}
}

func TestNewTracker_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window = 0
	_, err := NewTracker(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.StaleAfter = -time.Second
	_, err = NewTracker(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.HealthyRate = 0.05 // below warning
	_, err = NewTracker(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Patterns = []string{"no/placeholders"}
	_, err = NewTracker(cfg)
	assert.Error(t, err)
}

func TestTracker_ProcessAttributesDevice(t *testing.T) {
	tracker, _ := newTestTracker(t)

	id, ok := tracker.Process("telemetry/sensor-1/meter", 42)
	require.True(t, ok)
	assert.Equal(t, "sensor-1", id)

	h, ok := tracker.Device("sensor-1")
	require.True(t, ok)
	assert.Equal(t, "meter", h.DeviceType)
	assert.Equal(t, uint64(1), h.MessageCount)
	assert.Equal(t, 42, h.LastPayloadSize)
	assert.Equal(t, []string{"telemetry/sensor-1/meter"}, h.Topics)

	_, ok = tracker.Process("weather/oslo/temperature", 10)
	assert.False(t, ok)
	assert.Equal(t, 1, tracker.DeviceCount())
}

func TestTracker_KeepsFirstSeenDeviceType(t *testing.T) {
	tracker, _ := newTestTracker(t)

	tracker.Process("telemetry/sensor-1/meter", 10)
	tracker.Process("telemetry/sensor-1/status", 10)

	h, ok := tracker.Device("sensor-1")
	require.True(t, ok)
	assert.Equal(t, "meter", h.DeviceType)
	assert.Equal(t, uint64(2), h.MessageCount)
}

func TestTracker_HealthyClassification(t *testing.T) {
	tracker, clock := newTestTracker(t)

	// Two messages within the one minute window: 2/min, healthy.
	tracker.Process("devices/pump-1", 10)
	clock.advance(20 * time.Second)
	tracker.Process("devices/pump-1", 10)

	h, _ := tracker.Device("pump-1")
	assert.Equal(t, StatusHealthy, h.Status)
	assert.InDelta(t, 2.0, h.RatePerMinute(time.Minute), 1e-9)
}

func TestTracker_WarningWhenRateDrops(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Process("devices/pump-1", 10)
	clock.advance(90 * time.Second)
	tracker.Process("devices/pump-1", 10)

	// Only the latest message is inside the window: 1/min would be
	// healthy, so advance past it before refreshing.
	clock.advance(90 * time.Second)
	tracker.RefreshAll()

	h, _ := tracker.Device("pump-1")
	assert.Equal(t, StatusWarning, h.Status, "has traffic but below healthy rate")
}

func TestTracker_StaleOverridesRate(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Process("devices/pump-1", 10)
	tracker.Process("devices/pump-1", 10)
	h, _ := tracker.Device("pump-1")
	require.Equal(t, StatusHealthy, h.Status)

	clock.advance(6 * time.Minute)
	tracker.RefreshAll()
	assert.Equal(t, StatusStale, h.Status)

	// Fresh traffic recovers the device.
	tracker.Process("devices/pump-1", 10)
	tracker.Process("devices/pump-1", 10)
	assert.Equal(t, StatusHealthy, h.Status)
}

func TestTracker_DevicesSortedByLastSeen(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Process("devices/a", 1)
	clock.advance(time.Second)
	tracker.Process("devices/b", 1)
	clock.advance(time.Second)
	tracker.Process("devices/c", 1)

	devices := tracker.Devices()
	require.Len(t, devices, 3)
	assert.Equal(t, "c", devices[0].DeviceID)
	assert.Equal(t, "b", devices[1].DeviceID)
	assert.Equal(t, "a", devices[2].DeviceID)
}

func TestTracker_CountByStatus(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Process("devices/old", 1)
	clock.advance(10 * time.Minute)
	tracker.Process("devices/fresh", 1)
	tracker.Process("devices/fresh", 1)
	tracker.RefreshAll()

	counts := tracker.CountByStatus()
	assert.Equal(t, 1, counts[StatusStale])
	assert.Equal(t, 1, counts[StatusHealthy])
}

func TestTracker_TopicsAccumulate(t *testing.T) {
	tracker, _ := newTestTracker(t)

	tracker.Process("telemetry/s1/meter", 1)
	tracker.Process("telemetry/s1/inverter", 1)
	tracker.Process("telemetry/s1/meter", 1)

	h, _ := tracker.Device("s1")
	assert.Equal(t, []string{"telemetry/s1/inverter", "telemetry/s1/meter"}, h.Topics)
	assert.Equal(t, uint64(3), h.MessageCount)
}

func TestTracker_Clear(t *testing.T) {
	tracker, _ := newTestTracker(t)

	tracker.Process("devices/a", 1)
	tracker.Clear()
	assert.Zero(t, tracker.DeviceCount())
}

func TestHealth_LastSeenString(t *testing.T) {
	clock := newFakeClock()
	h := &Health{LastSeen: clock.now()}

	assert.Equal(t, "now", h.LastSeenString(clock.now()))
	assert.Equal(t, "30s ago", h.LastSeenString(clock.now().Add(30*time.Second)))
	assert.Equal(t, "5m ago", h.LastSeenString(clock.now().Add(5*time.Minute)))
	assert.Equal(t, "2h ago", h.LastSeenString(clock.now().Add(2*time.Hour)))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "healthy", StatusHealthy.String())
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "stale", StatusStale.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
}
