// internal/common/errors/errors.go

// Package errors provides the standardized error taxonomy for the query
// refinement layer: configuration faults, transport faults, upstream API
// rejections and retry exhaustion.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Transport Error Kinds
// ==========================

// TransportKind tags the category of a low-level transport failure.
type TransportKind string

const (
	KindTimeout           TransportKind = "TIMEOUT"
	KindConnectionRefused TransportKind = "CONNECTION_REFUSED"
	KindConnectionReset   TransportKind = "CONNECTION_RESET"
	KindPoolExhausted     TransportKind = "POOL_EXHAUSTED"
)

// ==========================
// 2. Error Types
// ==========================

// ConfigurationError indicates a request that can never be satisfied with the
// current configuration (e.g. a rate-limit cost larger than bucket capacity).
// Fatal, never retried.
type ConfigurationError struct {
	Message string
	Details string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("ConfigurationError: %s (%s)", e.Message, e.Details)
}

// TransportError wraps a network-level failure of an outbound attempt.
// Retryable for every kind.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("TransportError[%s]: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx response from the spending API that is not
// classified as retryable. Terminal, surfaced to the caller with the status
// code and a body excerpt.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("UpstreamError[%d]: %s", e.StatusCode, excerpt(e.Body))
}

// RetriesExhaustedError annotates the final failure after the retry policy ran
// out of attempts. The caller must not re-attempt.
type RetriesExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts (%s): %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// ==========================
// 3. Constructors
// ==========================

// NewConfigurationError creates a fatal configuration error.
func NewConfigurationError(message, details string) *ConfigurationError {
	return &ConfigurationError{Message: message, Details: details}
}

// NewTransportError creates a retryable transport error of the given kind.
func NewTransportError(kind TransportKind, err error) *TransportError {
	return &TransportError{Kind: kind, Err: err}
}

// NewUpstreamError creates a terminal upstream error.
func NewUpstreamError(statusCode int, body string) *UpstreamError {
	return &UpstreamError{StatusCode: statusCode, Body: body}
}

// NewRetriesExhaustedError annotates the last failure with attempt count and
// elapsed time.
func NewRetriesExhaustedError(attempts int, elapsed time.Duration, last error) *RetriesExhaustedError {
	return &RetriesExhaustedError{Attempts: attempts, Elapsed: elapsed, Last: last}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableKind reports whether a transport kind is safe to re-attempt.
// All four kinds are transient by definition; the function exists so callers
// do not hard-code the assumption.
func IsRetryableKind(kind TransportKind) bool {
	switch kind {
	case KindTimeout, KindConnectionRefused, KindConnectionReset, KindPoolExhausted:
		return true
	default:
		return false
	}
}

const maxExcerptLen = 200

func excerpt(body string) string {
	if len(body) <= maxExcerptLen {
		return body
	}
	return body[:maxExcerptLen] + "..."
}
