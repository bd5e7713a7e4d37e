// Package message defines the decoded inbound message value and the
// capacity-bounded per-topic log that retains the most recent messages
// for inspection.
//
// The log is the only place message payloads are retained; every other
// subsystem derives state from a message and drops it. Bounding the
// per-topic queue prevents memory exhaustion under high message rates.
package message
