package stats

import (
	"fmt"
	"time"

	"github.com/c360/topiclens/errors"
)

// Stats maintains two parallel time-ordered sequences of arrival
// timestamps and payload sizes, pruned to a rolling window. Rates are
// averaged over the whole window. Totals are monotonic and independent
// of the window. Not safe for concurrent use.
type Stats struct {
	window       time.Duration
	messageTimes []time.Time
	messageSizes []int
	totalMsgs    uint64
	totalBytes   uint64
	startTime    time.Time

	now func() time.Time
}

// New creates a Stats with the given rolling window.
func New(window time.Duration) (*Stats, error) {
	if window <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Stats", "New", "window must be positive")
	}
	s := &Stats{
		window: window,
		now:    time.Now,
	}
	s.startTime = s.now()
	return s, nil
}

// Record registers an arriving message of the given payload size and
// prunes entries that have left the window.
func (s *Stats) Record(payloadSize int) {
	now := s.now()

	s.messageTimes = append(s.messageTimes, now)
	s.messageSizes = append(s.messageSizes, payloadSize)
	s.totalMsgs++
	s.totalBytes += uint64(payloadSize)

	s.prune(now)
}

func (s *Stats) prune(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.messageTimes) && s.messageTimes[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		s.messageTimes = append(s.messageTimes[:0], s.messageTimes[i:]...)
		s.messageSizes = append(s.messageSizes[:0], s.messageSizes[i:]...)
	}
}

// Rate returns messages per second averaged over the window. The window
// boundary is inclusive: an entry at exactly now-window still counts.
func (s *Stats) Rate() float64 {
	if len(s.messageTimes) == 0 {
		return 0
	}

	cutoff := s.now().Add(-s.window)
	count := 0
	for _, t := range s.messageTimes {
		if !t.Before(cutoff) {
			count++
		}
	}
	return float64(count) / s.window.Seconds()
}

// ByteRate returns bytes per second averaged over the window.
func (s *Stats) ByteRate() float64 {
	if len(s.messageTimes) == 0 {
		return 0
	}

	cutoff := s.now().Add(-s.window)
	bytes := 0
	for i, t := range s.messageTimes {
		if !t.Before(cutoff) {
			bytes += s.messageSizes[i]
		}
	}
	return float64(bytes) / s.window.Seconds()
}

// TotalMessages returns the all-time message count.
func (s *Stats) TotalMessages() uint64 {
	return s.totalMsgs
}

// TotalBytes returns the all-time byte count.
func (s *Stats) TotalBytes() uint64 {
	return s.totalBytes
}

// Uptime returns the time since construction or the last Reset.
func (s *Stats) Uptime() time.Duration {
	return s.now().Sub(s.startTime)
}

// UptimeString formats the uptime for display.
func (s *Stats) UptimeString() string {
	secs := int64(s.Uptime().Seconds())
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
	}
}

// Reset clears windows and counters and restarts the uptime clock.
func (s *Stats) Reset() {
	s.messageTimes = nil
	s.messageSizes = nil
	s.totalMsgs = 0
	s.totalBytes = 0
	s.startTime = s.now()
}

// FormatBytes renders a byte count in human-readable form.
func FormatBytes(bytes uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatRate renders a per-second rate in human-readable form.
func FormatRate(rate float64) string {
	switch {
	case rate >= 1000:
		return fmt.Sprintf("%.1fk/s", rate/1000)
	case rate >= 1:
		return fmt.Sprintf("%.1f/s", rate)
	default:
		return fmt.Sprintf("%.2f/s", rate)
	}
}
