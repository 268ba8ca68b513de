// Package backend implements debugger backend handles: an in-memory simulated target and a JSON-RPC remote.
package backend

import (
	"context"

	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
)

// Handle is the connection to one debugger backend attached to one process.
// Requests never block; the returned Future resolves when the backend acknowledges.
type Handle interface {
	ID() entity.BackendID
	ConnectionState() entity.ConnectionState
	// Covers reports whether the address applies to the backend's process.
	Covers(addr entity.Address) bool

	RequestSet(ctx context.Context, req entity.Request) *Future
	RequestEnable(ctx context.Context, req entity.Request) *Future
	RequestDisable(ctx context.Context, req entity.Request) *Future
	RequestRemove(ctx context.Context, req entity.Request) *Future

	// Subscribe returns unsolicited events. The channel closes when cancelled or the handle is closed.
	Subscribe() (<-chan entity.Event, func())
	Close() error
}

// Request issues req on h according to op.
func Request(ctx context.Context, h Handle, op entity.Operation, req entity.Request) *Future {
	switch op {
	case entity.OpSet:
		return h.RequestSet(ctx, req)
	case entity.OpEnable:
		return h.RequestEnable(ctx, req)
	case entity.OpDisable:
		return h.RequestDisable(ctx, req)
	case entity.OpRemove:
		return h.RequestRemove(ctx, req)
	}
	return Failed(errors.NewBackendError(h.ID(), errors.ReasonRejected, "unsupported operation %v", op))
}
