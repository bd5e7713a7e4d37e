// Package stats tracks traffic statistics over a rolling time window:
// message and byte arrival rates derived from pruned timestamp
// sequences, plus monotonic all-time totals and an uptime clock.
package stats
