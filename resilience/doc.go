// Package resilience governs reconnection policy for the broker link.
//
// A Backoff computes capped exponential delays with jitter per attempt,
// and a Health tracks consecutive failures and lifetime connection
// counters, exposing the delay the next attempt should wait and whether
// reconnection should continue at all.
package resilience
