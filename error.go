package generatepdfs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the sentinel error wrapped by [InvalidArgumentError].
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotReady is the sentinel error wrapped by [RuntimeError] when a
	// download is attempted before the document reaches StatusCompleted.
	ErrNotReady = errors.New("pdf not ready")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// InvalidArgumentError reports malformed caller input or a malformed
// server response, detected before any document state is constructed.
// Reason is the complete, human-readable message naming the offending
// value.
type InvalidArgumentError struct {
	Reason string
	Err    error
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

// RuntimeError reports a failure during an operation whose inputs were
// valid: downloading a document that is not ready, or persisting one
// locally.
type RuntimeError struct {
	Reason string
	Err    error
}

func (e *RuntimeError) Error() string {
	return e.Reason
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError is returned when the server responds with a
// status code outside the 2xx range. Body holds up to 4KB of the
// response for diagnostics.
type UnexpectedStatusError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %s, body: %s", e.Err, e.Status, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
