// Package gateway exposes the analytics state over HTTP.
//
// Endpoints cover liveness, Prometheus exposition, JSON views of the
// topic index, message log, devices, metric series and schema history,
// and a WebSocket stream that pushes system snapshots to connected
// clients once a second.
package gateway
