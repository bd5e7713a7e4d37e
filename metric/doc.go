// Package metric provides the tracked metric time-series layer and the
// platform Prometheus registry.
//
// # Tracked metrics
//
// A Tracker holds named series, each bound to a topic wildcard filter
// and a dot-separated JSON field path. Every inbound message is matched
// against each series' filter; on a match the field path is resolved to
// a numeric value and appended to a capped series with running
// min/max/sum/count. Series render to down-sampled, min-max normalized
// sparklines for display.
//
// # Platform metrics
//
// Registry wraps a dedicated prometheus.Registry carrying the platform
// counters and gauges updated by the dispatcher and transport: event
// throughput, processing duration, connection state, reconnects and
// schema drift. The gateway serves it at /metrics.
package metric
