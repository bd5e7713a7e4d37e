package resilience

import (
	"sync"
	"time"
)

// State is the connection lifecycle phase.
type State int

const (
	// StateDisconnected means no session and no attempt in flight.
	StateDisconnected State = iota
	// StateConnecting means the first connect is in flight.
	StateConnecting
	// StateConnected means the session is up.
	StateConnected
	// StateReconnecting means the session dropped and backoff is
	// driving retry attempts.
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Health tracks connection outcomes and consults the backoff strategy
// for retry pacing. Safe for concurrent use; connect callbacks and the
// reconnect loop run on different goroutines.
type Health struct {
	mu                  sync.Mutex
	backoff             *Backoff
	consecutiveFailures uint
	totalConnections    uint64
	totalReconnects     uint64
	lastError           error
}

// NewHealth wraps a backoff strategy with failure bookkeeping.
func NewHealth(backoff *Backoff) *Health {
	return &Health{backoff: backoff}
}

// RecordSuccess notes an established connection. A success after
// failures counts as a completed reconnect.
func (h *Health) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.consecutiveFailures > 0 {
		h.totalReconnects++
	}
	h.consecutiveFailures = 0
	h.totalConnections++
	h.lastError = nil
}

// RecordFailure notes a failed or dropped connection.
func (h *Health) RecordFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.consecutiveFailures++
	h.lastError = err
}

// NextDelay returns the wait before the next attempt, false when the
// attempt budget is spent.
func (h *Health) NextDelay() (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.backoff.DelayFor(h.consecutiveFailures)
}

// ShouldReconnect reports whether another attempt is allowed.
func (h *Health) ShouldReconnect() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.backoff.ShouldContinue(h.consecutiveFailures)
}

// FailureCount returns the current consecutive failure streak.
func (h *Health) FailureCount() uint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consecutiveFailures
}

// TotalConnections returns the lifetime successful connection count.
func (h *Health) TotalConnections() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalConnections
}

// TotalReconnects returns how many failure streaks ended in recovery.
func (h *Health) TotalReconnects() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalReconnects
}

// LastError returns the most recent failure, nil while healthy.
func (h *Health) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastError
}

// IsHealthy reports whether there is no active failure streak.
func (h *Health) IsHealthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consecutiveFailures == 0
}
