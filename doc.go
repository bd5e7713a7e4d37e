// Package topiclens is a real-time analytics and resilience layer for
// MQTT broker traffic.
//
// The service subscribes to one or more topic filters and builds, in
// memory, a live picture of everything flowing through the broker:
//
//   - topic: hierarchical topic index with per-topic counters,
//     wildcard matching, search and lazy tree expansion
//   - message: bounded per-topic message log with payload rendering
//   - stats: rolling-window message and byte rates
//   - metric: numeric time series extracted from JSON payloads by
//     topic pattern and field path, with sparkline rendering
//   - device: device identity extraction from topic shapes and
//     cadence-based health classification
//   - latency: inter-arrival and payload latency estimation with
//     jitter
//   - schema: per-topic JSON schema capture and drift detection
//   - resilience: capped exponential backoff and connection health
//     driving the transport's reconnect loop
//
// The dispatch package fans every inbound event out to these
// subsystems under one lock, and the gateway package exposes the
// resulting state over HTTP, Prometheus exposition and WebSocket
// snapshots. cmd/topiclens wires it all together.
package topiclens
