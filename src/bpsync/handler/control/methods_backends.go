package control

import (
	"context"

	"github.com/uber/bpsync/src/bpsync/model"
	"go.lsp.dev/jsonrpc2"
)

// ListBackends returns every attached backend with its connection state.
func (r *jsonRPCRouter) ListBackends(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ids := r.provider.AttachedBackends(ctx)
	result := model.ListBackendsResult{Backends: make([]model.BackendStatus, 0, len(ids))}
	for _, id := range ids {
		h, err := r.provider.Handle(ctx, id)
		if err != nil {
			// Detached while listing.
			continue
		}
		result.Backends = append(result.Backends, model.BackendStatus{
			ID:         id,
			Connection: h.ConnectionState(),
			Degraded:   r.provider.Degraded(id),
		})
	}
	return reply(ctx, &result, nil)
}
