package control

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/controller/coordinator"
	"github.com/uber/bpsync/src/bpsync/controller/provider"
	"go.lsp.dev/jsonrpc2"
)

// Methods of the control API.
const (
	MethodBreakpointsCreate  = "breakpoints/create"
	MethodBreakpointsApply   = "breakpoints/apply"
	MethodBreakpointsStatus  = "breakpoints/status"
	MethodBackendsList       = "backends/list"
	MethodBreakpointsChanged = "breakpoints/changed"
)

type jsonRPCRouter struct {
	coordinator coordinator.Coordinator
	provider    provider.Provider
	uuid        uuid.UUID
	stats       tally.Scope
}

// HandleReq handles routing for a single request.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	r.stats.Tagged(map[string]string{"method": req.Method()}).Counter("requests").Inc(1)

	switch req.Method() {
	case MethodBreakpointsCreate:
		return r.Create(ctx, reply, req)

	case MethodBreakpointsApply:
		return r.Apply(ctx, reply, req)

	case MethodBreakpointsStatus:
		return r.Status(ctx, reply, req)

	case MethodBackendsList:
		return r.ListBackends(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}
