package utils

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between retrying, trying
// the next endpoint candidate, or surfacing the error to the dashboard.
type Kind string

const (
	// KindPathNotFound marks a 404/405 from an endpoint candidate: the path
	// is wrong, not the service. Never surfaced to the user directly.
	KindPathNotFound Kind = "path_not_found"
	// KindTransient marks timeouts and connection errors recoverable by
	// retry with backoff.
	KindTransient Kind = "transient"
	// KindExhaustedRetries marks a terminal failure after the retry budget
	// is spent; carries the last observed underlying error.
	KindExhaustedRetries Kind = "exhausted_retries"
	// KindUpstreamError marks a non-2xx (other than 404/405) answer from an
	// upstream service, preserving status and body for diagnostics.
	KindUpstreamError Kind = "upstream_error"
	// KindSchemaMismatch marks a 2xx answer whose body does not match the
	// documented response schema.
	KindSchemaMismatch Kind = "schema_mismatch"
	// KindInvalidInput marks a request rejected before any upstream call.
	KindInvalidInput Kind = "invalid_input"
)

// AppError wraps an operation, failure kind, human-facing message, and
// underlying error.
type AppError struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op string, kind Kind, msg string, err error) error {
	return &AppError{Op: op, Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the failure kind from err, walking the wrap chain. Errors
// outside the taxonomy report KindTransient so retry logic stays safe by
// default.
func KindOf(err error) Kind {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return KindTransient
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind == kind
	}
	return false
}
