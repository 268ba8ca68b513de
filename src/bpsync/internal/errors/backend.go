package errors

import (
	stderr "errors"
	"fmt"

	"github.com/uber/bpsync/src/bpsync/entity"
)

// Reason classifies a backend failure.
type Reason string

const (
	// ReasonTransport is a failure of the connection to the backend.
	ReasonTransport Reason = "transport"
	// ReasonRejected means the backend refused the request.
	ReasonRejected Reason = "rejected"
	// ReasonAddressInvalid means the address does not apply to the backend's process.
	ReasonAddressInvalid Reason = "address-invalid"
	// ReasonProcessExited means the target process is gone.
	ReasonProcessExited Reason = "process-exited"
	// ReasonDisconnected means the backend dropped while the request was outstanding.
	ReasonDisconnected Reason = "disconnected"
	// ReasonTimeout means no acknowledgment arrived in time.
	ReasonTimeout Reason = "timeout"
	// ReasonCancelled means the request was abandoned locally.
	ReasonCancelled Reason = "cancelled"
)

// BackendError is a failure reported for one request on one backend.
type BackendError struct {
	Backend entity.BackendID
	Reason  Reason
	Message string
}

// Error is an implementation of the error interface.
func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %q: %s", e.Backend, e.Reason)
	}
	return fmt.Sprintf("backend %q: %s: %s", e.Backend, e.Reason, e.Message)
}

// Invalidates reports whether the failure leaves the instance INVALID.
func (e *BackendError) Invalidates() bool {
	switch e.Reason {
	case ReasonAddressInvalid, ReasonProcessExited, ReasonTimeout:
		return true
	}
	return false
}

// NewBackendError creates a BackendError.
func NewBackendError(backend entity.BackendID, reason Reason, format string, args ...interface{}) *BackendError {
	return &BackendError{
		Backend: backend,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsBackendError returns the BackendError and true if it is part of the error chain.
func AsBackendError(e error) (*BackendError, bool) {
	var be *BackendError
	if !stderr.As(e, &be) {
		return nil, false
	}
	return be, true
}

// HasReason reports whether the error chain holds a BackendError with the given reason.
func HasReason(e error, reason Reason) bool {
	be, ok := AsBackendError(e)
	return ok && be.Reason == reason
}
