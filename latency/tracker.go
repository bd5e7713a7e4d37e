package latency

import (
	"fmt"
	"math"
	"time"

	"github.com/c360/topiclens/errors"
	"github.com/c360/topiclens/pkg/jsonfield"
	"github.com/c360/topiclens/pkg/ring"
)

// maxPayloadLatency bounds accepted end-to-end latencies. Values at or
// beyond this are clock skew, not latency.
const maxPayloadLatency = time.Hour

// highLatencyThreshold marks end-to-end delivery as concerning.
const highLatencyThreshold = 5 * time.Second

// Tracker accumulates inter-arrival and payload latency estimates.
// Not safe for concurrent use; callers serialize access.
type Tracker struct {
	interArrivals    *ring.Ring[time.Duration]
	payloadLatencies *ring.Ring[time.Duration]
	lastArrival      time.Time

	minInterArrival   time.Duration
	maxInterArrival   time.Duration
	totalInterArrival time.Duration
	interArrivalCount uint64

	minPayloadLatency   time.Duration
	maxPayloadLatency   time.Duration
	totalPayloadLatency time.Duration
	payloadLatencyCount uint64

	now func() time.Time
}

// NewTracker keeps at most maxSamples recent values per signal.
func NewTracker(maxSamples int) (*Tracker, error) {
	if maxSamples <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Tracker", "NewTracker", "max samples must be positive")
	}
	return &Tracker{
		interArrivals:    ring.MustNew[time.Duration](maxSamples),
		payloadLatencies: ring.MustNew[time.Duration](maxSamples),
		now:              time.Now,
	}, nil
}

// Record observes one message arrival. The payload is inspected for an
// embedded timestamp; payloads without one still feed inter-arrival.
func (t *Tracker) Record(payload []byte) {
	now := t.now()

	if !t.lastArrival.IsZero() {
		gap := now.Sub(t.lastArrival)
		if t.interArrivalCount == 0 || gap < t.minInterArrival {
			t.minInterArrival = gap
		}
		if gap > t.maxInterArrival {
			t.maxInterArrival = gap
		}
		t.totalInterArrival += gap
		t.interArrivalCount++
		t.interArrivals.Push(gap)
	}
	t.lastArrival = now

	if lat, ok := t.payloadLatency(payload, now); ok {
		if t.payloadLatencyCount == 0 || lat < t.minPayloadLatency {
			t.minPayloadLatency = lat
		}
		if lat > t.maxPayloadLatency {
			t.maxPayloadLatency = lat
		}
		t.totalPayloadLatency += lat
		t.payloadLatencyCount++
		t.payloadLatencies.Push(lat)
	}
}

// payloadLatency extracts a source timestamp from the payload and
// measures the delay to now. Negative values and values of an hour or
// more are discarded.
func (t *Tracker) payloadLatency(payload []byte, now time.Time) (time.Duration, bool) {
	v, ok := jsonfield.Parse(payload)
	if !ok {
		return 0, false
	}
	ts, ok := jsonfield.Timestamp(v)
	if !ok {
		return 0, false
	}
	lat := now.Sub(ts)
	if lat < 0 || lat >= maxPayloadLatency {
		return 0, false
	}
	return lat, true
}

// AvgInterArrival returns the mean gap between arrivals, false before
// the second message.
func (t *Tracker) AvgInterArrival() (time.Duration, bool) {
	if t.interArrivalCount == 0 {
		return 0, false
	}
	return t.totalInterArrival / time.Duration(t.interArrivalCount), true
}

// AvgPayloadLatency returns the mean end-to-end latency, false until a
// payload with a usable timestamp arrives.
func (t *Tracker) AvgPayloadLatency() (time.Duration, bool) {
	if t.payloadLatencyCount == 0 {
		return 0, false
	}
	return t.totalPayloadLatency / time.Duration(t.payloadLatencyCount), true
}

// MinInterArrival returns the smallest gap seen.
func (t *Tracker) MinInterArrival() (time.Duration, bool) {
	return t.minInterArrival, t.interArrivalCount > 0
}

// MaxInterArrival returns the largest gap seen.
func (t *Tracker) MaxInterArrival() (time.Duration, bool) {
	return t.maxInterArrival, t.interArrivalCount > 0
}

// MinPayloadLatency returns the smallest accepted latency.
func (t *Tracker) MinPayloadLatency() (time.Duration, bool) {
	return t.minPayloadLatency, t.payloadLatencyCount > 0
}

// MaxPayloadLatency returns the largest accepted latency.
func (t *Tracker) MaxPayloadLatency() (time.Duration, bool) {
	return t.maxPayloadLatency, t.payloadLatencyCount > 0
}

// InterArrivalCount reports how many gaps have been measured.
func (t *Tracker) InterArrivalCount() uint64 {
	return t.interArrivalCount
}

// PayloadLatencyCount reports how many payload latencies were accepted.
func (t *Tracker) PayloadLatencyCount() uint64 {
	return t.payloadLatencyCount
}

// RecentInterArrivals returns retained gap samples, oldest first.
func (t *Tracker) RecentInterArrivals() []time.Duration {
	return t.interArrivals.Items()
}

// RecentPayloadLatencies returns retained latency samples, oldest first.
func (t *Tracker) RecentPayloadLatencies() []time.Duration {
	return t.payloadLatencies.Items()
}

// Jitter is the population standard deviation of the retained
// inter-arrival samples around the running average. Needs at least two
// retained samples.
func (t *Tracker) Jitter() (time.Duration, bool) {
	samples := t.interArrivals.Items()
	if len(samples) < 2 {
		return 0, false
	}
	avg, _ := t.AvgInterArrival()
	mean := avg.Seconds()
	var variance float64
	for _, d := range samples {
		diff := d.Seconds() - mean
		variance += diff * diff
	}
	variance /= float64(len(samples))
	return time.Duration(math.Sqrt(variance) * float64(time.Second)), true
}

// HighLatency reports whether any accepted payload latency exceeded
// five seconds.
func (t *Tracker) HighLatency() bool {
	return t.payloadLatencyCount > 0 && t.maxPayloadLatency > highLatencyThreshold
}

// Reset discards all samples and aggregates.
func (t *Tracker) Reset() {
	t.interArrivals.Clear()
	t.payloadLatencies.Clear()
	t.lastArrival = time.Time{}
	t.minInterArrival = 0
	t.maxInterArrival = 0
	t.totalInterArrival = 0
	t.interArrivalCount = 0
	t.minPayloadLatency = 0
	t.maxPayloadLatency = 0
	t.totalPayloadLatency = 0
	t.payloadLatencyCount = 0
}

// FormatDuration renders a duration for compact display.
func FormatDuration(d time.Duration) string {
	millis := d.Milliseconds()
	switch {
	case millis < 1000:
		return fmt.Sprintf("%dms", millis)
	case millis < 60_000:
		return fmt.Sprintf("%.1fs", float64(millis)/1000.0)
	default:
		return fmt.Sprintf("%.1fm", float64(millis)/60_000.0)
	}
}
