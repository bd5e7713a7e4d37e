package resilience

import (
	"math/rand/v2"
	"time"

	"github.com/c360/topiclens/errors"
)

// maxExponent caps the exponential term so the shift cannot overflow.
const maxExponent = 20

// JitterFunc picks a jitter offset in [0, limit) for an attempt.
type JitterFunc func(attempt uint, limit time.Duration) time.Duration

// RandomJitter draws the offset uniformly at random.
func RandomJitter(_ uint, limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit)))
}

// DeterministicJitter derives the offset from the attempt number, in
// whole milliseconds. Used in tests where reproducible delays matter.
func DeterministicJitter(attempt uint, limit time.Duration) time.Duration {
	ms := limit.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return time.Duration(int64(attempt)*17%ms) * time.Millisecond
}

// Backoff computes reconnection delays: exponential growth from a base
// delay, capped at a maximum, with proportional jitter on top.
type Backoff struct {
	base         time.Duration
	max          time.Duration
	maxAttempts  uint
	jitterFactor float64
	jitter       JitterFunc
}

// BackoffOption adjusts a Backoff at construction.
type BackoffOption func(*Backoff)

// WithBaseDelay sets the first attempt's delay.
func WithBaseDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.base = d }
}

// WithMaxDelay caps the delay regardless of attempt number.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.max = d }
}

// WithMaxAttempts bounds reconnection attempts. Zero means unlimited.
func WithMaxAttempts(n uint) BackoffOption {
	return func(b *Backoff) { b.maxAttempts = n }
}

// WithJitterFactor sets the fraction of the delay used as jitter range.
func WithJitterFactor(f float64) BackoffOption {
	return func(b *Backoff) { b.jitterFactor = f }
}

// WithJitterFunc overrides how the jitter offset is drawn.
func WithJitterFunc(fn JitterFunc) BackoffOption {
	return func(b *Backoff) { b.jitter = fn }
}

// NewBackoff builds a strategy from the defaults (5s base, 60s cap,
// unlimited attempts, 10% random jitter) and the given options.
func NewBackoff(opts ...BackoffOption) (*Backoff, error) {
	b := &Backoff{
		base:         5 * time.Second,
		max:          60 * time.Second,
		jitterFactor: 0.1,
		jitter:       RandomJitter,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.base <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Backoff", "NewBackoff", "base delay must be positive")
	}
	if b.max < b.base {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Backoff", "NewBackoff", "max delay must be at least the base delay")
	}
	if b.jitterFactor < 0 || b.jitterFactor > 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Backoff", "NewBackoff", "jitter factor must be in [0, 1]")
	}
	if b.jitter == nil {
		b.jitter = RandomJitter
	}
	return b, nil
}

// DelayFor returns the wait before the given attempt, 1-indexed. The
// second return is false once the attempt number exceeds the configured
// maximum.
func (b *Backoff) DelayFor(attempt uint) (time.Duration, bool) {
	if b.maxAttempts > 0 && attempt > b.maxAttempts {
		return 0, false
	}
	var exponent uint
	if attempt > 0 {
		exponent = attempt - 1
	}
	if exponent > maxExponent {
		exponent = maxExponent
	}
	delay := b.base << exponent
	if delay > b.max || delay <= 0 {
		delay = b.max
	}

	limit := time.Duration(float64(delay) * b.jitterFactor)
	delay += b.jitter(attempt, limit)
	if delay > b.max {
		delay = b.max
	}
	return delay, true
}

// ShouldContinue reports whether another attempt is allowed after the
// given number of consecutive failures.
func (b *Backoff) ShouldContinue(failures uint) bool {
	return b.maxAttempts == 0 || failures < b.maxAttempts
}

// MaxAttempts returns the configured attempt bound, zero for unlimited.
func (b *Backoff) MaxAttempts() uint {
	return b.maxAttempts
}
