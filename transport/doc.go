// Package transport maintains the MQTT broker session.
//
// Automatic reconnection in the underlying client is disabled; the
// reconnect loop here is driven by the resilience backoff instead, so
// retry pacing, attempt budgets and state transitions are all owned by
// one place. Received messages and state changes are emitted as
// dispatch events.
package transport
