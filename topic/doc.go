// Package topic implements the MQTT topic grammar primitives: wildcard
// pattern matching against `+`/`#` filters and a trie-based index over
// `/`-delimited topic hierarchies.
//
// The index gives O(k) insertion where k is the number of topic levels,
// accumulates per-topic message and byte counters, and supports lazy
// visible-subtree flattening so traversal cost is bounded by what a
// display actually shows.
package topic
