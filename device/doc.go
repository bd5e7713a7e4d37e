// Package device classifies device health from telemetry cadence.
//
// A device identity is derived from the shape of the topic a message
// arrives on, using a configurable ordered list of extraction patterns
// (first match wins). Each known device carries a rolling window of
// recent arrival timestamps; health is reclassified after every update,
// with staleness overriding an otherwise-healthy rate computed from a
// window that has since gone cold.
package device
