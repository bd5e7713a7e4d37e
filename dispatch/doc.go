// Package dispatch fans inbound broker events out to the analytics
// subsystems.
//
// The Dispatcher owns one instance of every tracker and serializes all
// mutation behind a single lock, so the transport goroutine and API
// readers never race. Message events feed the topic index, message
// log, traffic stats, metric series, device health, latency and schema
// trackers in one pass; state and error events update connection
// health and metrics.
package dispatch
