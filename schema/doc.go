// Package schema detects drift in the shape of JSON payloads per topic.
//
// The first JSON message on a topic establishes its schema as a flat
// map of dotted field paths to types. Every later message is diffed
// against the stored schema; added fields, removed fields and type
// changes are reported and the stored schema is replaced with the
// latest shape. Non-JSON payloads leave the tracker untouched.
package schema
