package errors

import (
	stderr "errors"
	"fmt"
	"strings"

	"github.com/uber/bpsync/src/bpsync/entity"
)

// UnknownBreakpointError fails a whole batch that names breakpoints the registry does not hold.
type UnknownBreakpointError struct {
	IDs []entity.BreakpointID
}

// Error is an implementation of the error interface.
func (e *UnknownBreakpointError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = string(id)
	}
	return fmt.Sprintf("unknown breakpoints: %s", strings.Join(ids, ", "))
}

// UnknownBreakpoints returns the missing ids and true if UnknownBreakpointError is part of the error chain.
func UnknownBreakpoints(e error) (_ []entity.BreakpointID, ok bool) {
	var ub *UnknownBreakpointError
	if !stderr.As(e, &ub) {
		return nil, false
	}
	return ub.IDs, true
}

// IllegalTransitionError reports an instance state change outside the state machine.
type IllegalTransitionError struct {
	BreakpointID entity.BreakpointID
	Backend      entity.BackendID
	From         entity.InstanceState
	To           entity.InstanceState
}

// Error is an implementation of the error interface.
func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition for %q on %q: %v -> %v", e.BreakpointID, e.Backend, e.From, e.To)
}

// IsIllegalTransition reports whether IllegalTransitionError is part of the error chain.
func IsIllegalTransition(e error) bool {
	var it *IllegalTransitionError
	return stderr.As(e, &it)
}

// RemovalPendingError fails a batch that would change breakpoints already being removed.
type RemovalPendingError struct {
	IDs []entity.BreakpointID
}

// Error is an implementation of the error interface.
func (e *RemovalPendingError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = string(id)
	}
	return fmt.Sprintf("breakpoints pending removal: %s", strings.Join(ids, ", "))
}

// RemovalPending returns the affected ids and true if RemovalPendingError is part of the error chain.
func RemovalPending(e error) (_ []entity.BreakpointID, ok bool) {
	var rp *RemovalPendingError
	if !stderr.As(e, &rp) {
		return nil, false
	}
	return rp.IDs, true
}
