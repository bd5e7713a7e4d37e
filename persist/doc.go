// Package persist stores user data that survives restarts: starred
// topics and devices, the last selected topic and saved metric
// definitions. Data lives in a single JSON file under the user config
// directory unless a path is given.
package persist
