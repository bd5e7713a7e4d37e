// Package health tracks liveness of the application's subsystems.
//
// Each subsystem reports a Status under its name; the monitor
// aggregates them into a single system status where any unhealthy
// member makes the whole unhealthy and any degraded member makes it
// degraded.
package health
