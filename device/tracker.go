package device

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/c360/topiclens/errors"
)

// Status is the health classification of a device.
type Status int

const (
	// StatusUnknown means the device has not produced enough traffic
	// to classify.
	StatusUnknown Status = iota
	// StatusHealthy means the device reports at a regular cadence.
	StatusHealthy
	// StatusWarning means the device reports, but slowly.
	StatusWarning
	// StatusStale means the device has gone quiet past the staleness
	// threshold.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusWarning:
		return "warning"
	case StatusStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Health is the tracked state of one device.
type Health struct {
	DeviceID        string    `json:"device_id"`
	DeviceType      string    `json:"device_type,omitempty"`
	Status          Status    `json:"-"`
	MessageCount    uint64    `json:"message_count"`
	LastSeen        time.Time `json:"last_seen"`
	LastPayloadSize int       `json:"last_payload_size"`
	Topics          []string  `json:"topics"`

	// arrival times inside the rate window, oldest first
	recent []time.Time
}

// RatePerMinute reports the message rate over the rolling window the
// tracker maintains for this device.
func (h *Health) RatePerMinute(window time.Duration) float64 {
	if len(h.recent) == 0 || window <= 0 {
		return 0
	}
	return float64(len(h.recent)) / window.Minutes()
}

// TimeSinceLast reports how long ago the device was last heard from.
func (h *Health) TimeSinceLast(now time.Time) time.Duration {
	if h.LastSeen.IsZero() {
		return 0
	}
	return now.Sub(h.LastSeen)
}

// LastSeenString renders the time since last contact for display.
func (h *Health) LastSeenString(now time.Time) string {
	since := h.TimeSinceLast(now)
	switch {
	case since < time.Second:
		return "now"
	case since < time.Minute:
		return fmt.Sprintf("%ds ago", int(since.Seconds()))
	case since < time.Hour:
		return fmt.Sprintf("%dm ago", int(since.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(since.Hours()))
	}
}

// Config controls identity extraction and classification thresholds.
type Config struct {
	// Patterns are tried in order; the first match attributes the
	// message. Empty means DefaultPatterns.
	Patterns []string
	// Window is the rolling interval rates are computed over.
	Window time.Duration
	// StaleAfter marks a device stale once it has been silent this long.
	StaleAfter time.Duration
	// HealthyRate is the minimum messages-per-minute for healthy.
	HealthyRate float64
	// WarningRate is the minimum messages-per-minute for warning.
	WarningRate float64
}

// DefaultConfig returns the stock thresholds: a one minute rate window,
// five minute staleness cutoff, healthy at one message per minute and
// warning at one message per ten minutes.
func DefaultConfig() Config {
	return Config{
		Patterns:    DefaultPatterns(),
		Window:      time.Minute,
		StaleAfter:  5 * time.Minute,
		HealthyRate: 1.0,
		WarningRate: 0.1,
	}
}

// Tracker attributes messages to devices and maintains their health.
// Not safe for concurrent use; callers serialize access.
type Tracker struct {
	cfg      Config
	patterns []Pattern
	devices  map[string]*Health

	now func() time.Time
}

// NewTracker compiles the configured patterns and validates thresholds.
func NewTracker(cfg Config) (*Tracker, error) {
	if cfg.Window <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Tracker", "NewTracker", "window must be positive")
	}
	if cfg.StaleAfter <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Tracker", "NewTracker", "stale threshold must be positive")
	}
	if cfg.WarningRate < 0 || cfg.HealthyRate < cfg.WarningRate {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Tracker", "NewTracker", "rate thresholds must satisfy 0 <= warning <= healthy")
	}
	raw := cfg.Patterns
	if len(raw) == 0 {
		raw = DefaultPatterns()
	}
	patterns := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := ParsePattern(r)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return &Tracker{
		cfg:      cfg,
		patterns: patterns,
		devices:  map[string]*Health{},
		now:      time.Now,
	}, nil
}

// Process attributes a message to a device and updates its health.
// Returns the device id and true when a pattern matched, or false when
// the topic carries no recognizable identity.
func (t *Tracker) Process(topic string, payloadSize int) (string, bool) {
	id, deviceType, ok := t.extract(topic)
	if !ok {
		return "", false
	}

	now := t.now()
	h := t.devices[id]
	if h == nil {
		h = &Health{DeviceID: id}
		t.devices[id] = h
	}
	if h.DeviceType == "" && deviceType != "" {
		h.DeviceType = deviceType
	}
	h.MessageCount++
	h.LastSeen = now
	h.LastPayloadSize = payloadSize
	h.recent = append(h.recent, now)
	t.prune(h, now)
	if !contains(h.Topics, topic) {
		h.Topics = append(h.Topics, topic)
		sort.Strings(h.Topics)
	}
	h.Status = t.classify(h, now)
	return id, true
}

func (t *Tracker) extract(topic string) (id, deviceType string, ok bool) {
	parts := strings.Split(topic, "/")
	for _, p := range t.patterns {
		if id, deviceType, ok = p.extract(parts); ok {
			return id, deviceType, true
		}
	}
	return "", "", false
}

func (t *Tracker) prune(h *Health, now time.Time) {
	cutoff := now.Add(-t.cfg.Window)
	i := 0
	for i < len(h.recent) && h.recent[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		h.recent = append(h.recent[:0], h.recent[i:]...)
	}
}

// classify applies thresholds in priority order. Staleness wins over a
// rate window that has since gone cold.
func (t *Tracker) classify(h *Health, now time.Time) Status {
	if h.TimeSinceLast(now) > t.cfg.StaleAfter {
		return StatusStale
	}
	rate := h.RatePerMinute(t.cfg.Window)
	switch {
	case rate >= t.cfg.HealthyRate:
		return StatusHealthy
	case rate >= t.cfg.WarningRate || h.MessageCount > 0:
		return StatusWarning
	default:
		return StatusUnknown
	}
}

// RefreshAll reclassifies every device against the current time. Call
// periodically so silent devices decay to stale without traffic.
func (t *Tracker) RefreshAll() {
	now := t.now()
	for _, h := range t.devices {
		t.prune(h, now)
		h.Status = t.classify(h, now)
	}
}

// Device returns the health record for one device.
func (t *Tracker) Device(id string) (*Health, bool) {
	h, ok := t.devices[id]
	return h, ok
}

// Devices returns all tracked devices, most recently seen first.
func (t *Tracker) Devices() []*Health {
	out := make([]*Health, 0, len(t.devices))
	for _, h := range t.devices {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

// DeviceCount reports how many devices have been seen.
func (t *Tracker) DeviceCount() int {
	return len(t.devices)
}

// CountByStatus tallies devices per classification.
func (t *Tracker) CountByStatus() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, h := range t.devices {
		counts[h.Status]++
	}
	return counts
}

// Clear forgets all devices.
func (t *Tracker) Clear() {
	t.devices = map[string]*Health{}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
