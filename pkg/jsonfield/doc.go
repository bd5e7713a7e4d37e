// Package jsonfield provides shared JSON payload plumbing for the
// analytics trackers: dot-path numeric resolution, flattened
// field-path/type extraction, embedded timestamp extraction, and
// numeric field discovery.
//
// Payloads are heterogeneous and untrusted. Every function in this
// package is total over arbitrary input: malformed JSON, missing keys,
// and wrong types yield a "not found" result, never an error.
package jsonfield
