package blinko

import (
	"errors"
	"fmt"
)

// Every client call fails with exactly one entry of this taxonomy. Callers
// branch with errors.Is/errors.As and must never need to inspect transport
// internals.
var (
	// ErrEmptyContent means the note content was empty after trimming.
	// No HTTP request was issued. User-correctable.
	ErrEmptyContent = errors.New("note content cannot be empty")

	// ErrUnauthorized means the remote service returned 401: the secret is
	// invalid or expired. The user must reconfigure; never retry automatically.
	ErrUnauthorized = errors.New("credential rejected by remote service")

	// ErrTimeout means the request exceeded its deadline. Transient; the
	// user may retry manually.
	ErrTimeout = errors.New("request to remote service timed out")

	// ErrConnection means a transport-level failure (DNS, TCP, TLS).
	// Transient, same handling as ErrTimeout.
	ErrConnection = errors.New("failed to connect to remote service")
)

// APIError is any remote rejection with status >= 400 other than 401.
// The status code is surfaced to the user; no retry.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote service returned status %d", e.StatusCode)
}

// UnexpectedError is the catch-all for outcomes not covered by the taxonomy.
// Detail carries a short generic description; the wrapped cause is kept for
// logs only and must not be shown to end users.
type UnexpectedError struct {
	Detail string
	cause  error
}

func (e *UnexpectedError) Error() string {
	return e.Detail
}

func (e *UnexpectedError) Unwrap() error {
	return e.cause
}
