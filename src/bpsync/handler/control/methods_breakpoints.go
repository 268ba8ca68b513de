package control

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/mapper"
	"github.com/uber/bpsync/src/bpsync/model"
	"go.lsp.dev/jsonrpc2"
)

// Create registers a breakpoint and places it on every backend covering its address.
func (r *jsonRPCRouter) Create(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToCreateParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	var changes <-chan *entity.BatchResult
	if params.Wait {
		// Subscribed before creating so the final result can not be missed.
		ch, unsubscribe := r.coordinator.Subscribe()
		defer unsubscribe()
		changes = ch
	}

	bp, res, err := r.coordinator.Create(ctx, mapper.CreateParamsToSpec(params))
	if err != nil {
		return reply(ctx, nil, mapper.ToRPCError(err))
	}
	if params.Wait {
		if res, err = awaitBatch(ctx, changes, res.ID); err != nil {
			return reply(ctx, nil, err)
		}
	}
	return reply(ctx, &model.CreateResult{Breakpoint: bp, Result: res}, nil)
}

// Apply applies one operation to a set of breakpoints. Unknown ids fail the whole request.
func (r *jsonRPCRouter) Apply(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToApplyParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	var res *entity.BatchResult
	if params.Wait {
		res, err = r.coordinator.ApplyAndWait(ctx, params.Op, params.IDs)
	} else {
		res, err = r.coordinator.Apply(ctx, params.Op, params.IDs)
	}
	if err != nil {
		return reply(ctx, nil, mapper.ToRPCError(err))
	}
	return reply(ctx, res, nil)
}

// Status returns the per-backend instances of the requested breakpoints.
func (r *jsonRPCRouter) Status(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToStatusParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	instances, err := r.coordinator.StatusOf(ctx, params.IDs)
	if err != nil {
		return reply(ctx, nil, mapper.ToRPCError(err))
	}
	return reply(ctx, &model.StatusResult{Instances: instances}, nil)
}

func awaitBatch(ctx context.Context, changes <-chan *entity.BatchResult, id uuid.UUID) (*entity.BatchResult, error) {
	for {
		select {
		case res, ok := <-changes:
			if !ok {
				return nil, mapper.ToRPCError(errors.ErrClosed)
			}
			if res.ID == id {
				return res, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
