package latency

import (
	"fmt"
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

func newTestTracker(t *testing.T, maxSamples int) (*Tracker, *fakeClock) {
	t.Helper()
	tracker, err := NewTracker(maxSamples)
	require.NoError(t, err)
	clock := newFakeClock()
	tracker.now = clock.now
	return tracker, clock
}

func TestNewTracker_InvalidCapacity(t *testing.T) {
	_, err := NewTracker(0)
	assert.Error(t, err)
}

func TestTracker_InterArrival(t *testing.T) {
	tracker, clock := newTestTracker(t, 10)

	tracker.Record([]byte("{}"))
	_, ok := tracker.AvgInterArrival()
	assert.False(t, ok, "single message yields no gap")

	clock.advance(100 * time.Millisecond)
	tracker.Record([]byte("{}"))
	clock.advance(300 * time.Millisecond)
	tracker.Record([]byte("{}"))

	assert.Equal(t, uint64(2), tracker.InterArrivalCount())

	avg, ok := tracker.AvgInterArrival()
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, avg)

	minGap, _ := tracker.MinInterArrival()
	maxGap, _ := tracker.MaxInterArrival()
	assert.Equal(t, 100*time.Millisecond, minGap)
	assert.Equal(t, 300*time.Millisecond, maxGap)
}

func TestTracker_PayloadLatency(t *testing.T) {
	tracker, clock := newTestTracker(t, 10)

	sent := clock.now().Add(-250 * time.Millisecond)
	payload := fmt.Sprintf(`{"timestamp": %d}`, sent.UnixMilli())
	tracker.Record([]byte(payload))

	assert.Equal(t, uint64(1), tracker.PayloadLatencyCount())
	avg, ok := tracker.AvgPayloadLatency()
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, avg)
}

func TestTracker_PayloadLatencySecondsTimestamp(t *testing.T) {
	tracker, clock := newTestTracker(t, 10)

	// Whole-second epoch, two seconds in the past.
	sent := clock.now().Add(-2 * time.Second).Unix()
	tracker.Record([]byte(fmt.Sprintf(`{"ts": %d}`, sent)))

	avg, ok := tracker.AvgPayloadLatency()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, avg)
}

func TestTracker_RejectsUnreasonableLatency(t *testing.T) {
	tracker, clock := newTestTracker(t, 10)

	// Timestamp from the future.
	future := clock.now().Add(10 * time.Second)
	tracker.Record([]byte(fmt.Sprintf(`{"timestamp": %d}`, future.UnixMilli())))
	assert.Equal(t, uint64(0), tracker.PayloadLatencyCount())

	// Older than an hour.
	ancient := clock.now().Add(-2 * time.Hour)
	tracker.Record([]byte(fmt.Sprintf(`{"timestamp": %d}`, ancient.UnixMilli())))
	assert.Equal(t, uint64(0), tracker.PayloadLatencyCount())

	// Non-JSON and timestamp-free payloads are fine, just unmeasured.
	tracker.Record([]byte("plain text"))
	tracker.Record([]byte(`{"value": 42}`))
	assert.Equal(t, uint64(0), tracker.PayloadLatencyCount())
	assert.Equal(t, uint64(3), tracker.InterArrivalCount())
}

func TestTracker_Jitter(t *testing.T) {
	tracker, clock := newTestTracker(t, 10)

	tracker.Record([]byte("{}"))
	_, ok := tracker.Jitter()
	assert.False(t, ok)

	// Perfectly regular cadence has zero jitter.
	for i := 0; i < 4; i++ {
		clock.advance(time.Second)
		tracker.Record([]byte("{}"))
	}
	j, ok := tracker.Jitter()
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), j)

	// A single irregular gap produces spread.
	clock.advance(3 * time.Second)
	tracker.Record([]byte("{}"))
	j, ok = tracker.Jitter()
	require.True(t, ok)
	assert.Greater(t, j, time.Duration(0))
}

func TestTracker_HighLatency(t *testing.T) {
	tracker, clock := newTestTracker(t, 10)
	assert.False(t, tracker.HighLatency())

	sent := clock.now().Add(-2 * time.Second)
	tracker.Record([]byte(fmt.Sprintf(`{"timestamp": %d}`, sent.UnixMilli())))
	assert.False(t, tracker.HighLatency())

	sent = clock.now().Add(-10 * time.Second)
	tracker.Record([]byte(fmt.Sprintf(`{"timestamp": %d}`, sent.UnixMilli())))
	assert.True(t, tracker.HighLatency())
}

func TestTracker_SampleCapKeepsAggregates(t *testing.T) {
	tracker, clock := newTestTracker(t, 3)

	for i := 0; i < 6; i++ {
		tracker.Record([]byte("{}"))
		clock.advance(time.Second)
	}

	assert.Len(t, tracker.RecentInterArrivals(), 3)
	assert.Equal(t, uint64(5), tracker.InterArrivalCount())
}

func TestTracker_Reset(t *testing.T) {
	tracker, clock := newTestTracker(t, 10)

	tracker.Record([]byte("{}"))
	clock.advance(time.Second)
	tracker.Record([]byte("{}"))

	tracker.Reset()
	assert.Equal(t, uint64(0), tracker.InterArrivalCount())
	assert.Empty(t, tracker.RecentInterArrivals())
	_, ok := tracker.AvgInterArrival()
	assert.False(t, ok)

	// First message after reset measures no gap.
	clock.advance(time.Second)
	tracker.Record([]byte("{}"))
	assert.Equal(t, uint64(0), tracker.InterArrivalCount())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "50ms", FormatDuration(50*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "1.5m", FormatDuration(90*time.Second))
}
