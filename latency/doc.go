// Package latency estimates delivery timing from the receive side.
//
// Two signals are tracked: inter-arrival time between consecutive
// messages, and end-to-end payload latency for payloads carrying an
// embedded source timestamp. Running aggregates are monotonic over the
// tracker's lifetime while a capped ring of recent samples backs jitter
// and sparkline rendering.
package latency
