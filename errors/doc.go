// Package errors provides standardized error handling for topiclens
// components.
//
// # Overview
//
// Errors are classified into three classes: Transient (temporary,
// retryable — drives the reconnect controller), Invalid (bad input or
// configuration, non-retryable), and Fatal (unrecoverable, stop
// processing). Classification enables retry decisions without error
// string matching and is preserved through wrapping chains.
//
// # Wrapping
//
// All wrapping follows the format "component.method: action failed: %w":
//
//	errors.WrapTransient(err, "Transport", "Connect", "broker dial")
//	errors.WrapInvalid(err, "Config", "Validate", "backoff parameters")
//
// The generic Wrap preserves the original error's classification.
//
// # Standard variables
//
// Pre-defined variables cover common conditions (ErrConnectionLost,
// ErrInvalidConfig, ...). Use them instead of ad-hoc messages so that
// callers can test with errors.Is.
//
// All classification and wrapping operations are safe for concurrent
// use and integrate with the standard library's errors.Is/As/Unwrap.
package errors
