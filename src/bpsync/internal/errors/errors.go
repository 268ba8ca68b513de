// Package errors contains the error taxonomy of the bpsync service.
package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// ErrStaleAck reports an acknowledgment older than the last one applied to the instance.
	ErrStaleAck = New("stale acknowledgment")
	// ErrClosed reports use of a component after Close.
	ErrClosed = New("closed")
	// ErrNoBackend reports that a backend is not attached.
	ErrNoBackend = New("backend not attached")
)

// IsStale reports whether the error is a discarded stale acknowledgment.
func IsStale(e error) bool {
	return stderr.Is(e, ErrStaleAck)
}
