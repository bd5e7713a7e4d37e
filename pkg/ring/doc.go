// Package ring provides a generic bounded FIFO that evicts its oldest
// entry on overflow.
//
// # Overview
//
// Ring backs every capped history in topiclens: per-topic message
// queues, tracked metric series, latency sample buffers, and the schema
// change history. It is intentionally minimal: single-writer use on the
// dispatcher goroutine, no locking, no blocking policies.
//
// # Usage
//
//	r := ring.New[float64](100)
//	r.Push(1.5) // evicts the oldest sample once 100 are stored
//	for _, v := range r.Items() {
//	    ...
//	}
//
// For concurrent use, callers must provide their own synchronization.
package ring
