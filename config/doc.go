// Package config loads and validates application configuration.
//
// Configuration is a JSON file layered with environment overrides
// under the TOPICLENS_ prefix. Every limit and threshold has a default
// so an empty file and a missing file both produce a usable config.
package config
