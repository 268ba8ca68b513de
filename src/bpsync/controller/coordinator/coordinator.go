// Package coordinator applies bulk breakpoint operations across every attached backend and
// reconciles the outcomes into the registry.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/controller/provider"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/internal/notifier"
	"github.com/uber/bpsync/src/bpsync/repository/registry"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _notifierKey = "notifier.bufferSize"

// Coordinator is the entry point for breakpoint operations.
type Coordinator interface {
	// Create registers a breakpoint and places it on every backend that covers its address.
	// The returned result is pending; the final one is published on the change stream.
	Create(ctx context.Context, spec entity.Spec) (*entity.Breakpoint, *entity.BatchResult, error)

	// Apply validates every id, records the desired state, and dispatches in the background.
	// An unknown id fails the batch with *errors.UnknownBreakpointError before anything changes,
	// and so does *errors.RemovalPendingError when a breakpoint being removed would be enabled, disabled or set.
	// The returned result only carries the batch id, operation and breakpoints.
	Apply(ctx context.Context, op entity.Operation, ids []entity.BreakpointID) (*entity.BatchResult, error)

	// ApplyAndWait is Apply followed by waiting for the final result.
	ApplyAndWait(ctx context.Context, op entity.Operation, ids []entity.BreakpointID) (*entity.BatchResult, error)

	// StatusOf returns the instances of each breakpoint, or of every breakpoint when ids is empty.
	StatusOf(ctx context.Context, ids []entity.BreakpointID) (map[entity.BreakpointID][]entity.Instance, error)

	// Subscribe returns the change stream of final batch results.
	Subscribe() (<-chan *entity.BatchResult, func())
	Close() error
}

// Params are inbound parameters to initialize a new Coordinator.
type Params struct {
	fx.In

	Registry  registry.Repository
	Provider  provider.Provider
	Config    config.Provider
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Lifecycle fx.Lifecycle
}

type coordinator struct {
	registry registry.Repository
	provider provider.Provider
	logger   *zap.SugaredLogger
	stats    tally.Scope

	mu     sync.Mutex
	closed bool

	changes    notifier.Broadcaster[*entity.BatchResult]
	stopEvents func()
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Coordinator and starts following provider events.
func New(p Params) (Coordinator, error) {
	var bufferSize int
	if err := p.Config.Get(_notifierKey).Populate(&bufferSize); err != nil {
		return nil, fmt.Errorf("unable to read %s config: %w", _notifierKey, err)
	}

	c := &coordinator{
		registry: p.Registry,
		provider: p.Provider,
		logger:   p.Logger.With("component", "coordinator"),
		stats:    p.Stats.SubScope("coordinator"),
		changes:  notifier.New[*entity.BatchResult](bufferSize),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	events, stop := p.Provider.Subscribe()
	c.stopEvents = stop
	c.wg.Add(1)
	go c.watch(events)

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return c.Close()
			},
		})
	}
	return c, nil
}

func (c *coordinator) Create(ctx context.Context, spec entity.Spec) (*entity.Breakpoint, *entity.BatchResult, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, nil, fmt.Errorf("generating breakpoint id: %w", err)
	}
	bp := entity.NewBreakpoint(entity.BreakpointID(id.String()), spec)

	if err := c.registry.Register(ctx, bp); err != nil {
		return nil, nil, err
	}
	c.logger.Infow("breakpoint created", "breakpoint", bp.ID.String(), "address", bp.Address.String(), "kind", bp.Kind.String())

	pending, _, err := c.start(entity.OpSet, entity.TriggerUser, []entity.BreakpointID{bp.ID}, []entity.Breakpoint{*bp}, nil)
	if err != nil {
		return nil, nil, err
	}
	return bp, pending, nil
}

func (c *coordinator) Apply(ctx context.Context, op entity.Operation, ids []entity.BreakpointID) (*entity.BatchResult, error) {
	pending, _, err := c.apply(ctx, op, ids)
	return pending, err
}

func (c *coordinator) ApplyAndWait(ctx context.Context, op entity.Operation, ids []entity.BreakpointID) (*entity.BatchResult, error) {
	_, final, err := c.apply(ctx, op, ids)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-final:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *coordinator) apply(ctx context.Context, op entity.Operation, ids []entity.BreakpointID) (*entity.BatchResult, <-chan *entity.BatchResult, error) {
	switch op {
	case entity.OpEnable, entity.OpDisable, entity.OpRemove, entity.OpSet:
	default:
		return nil, nil, fmt.Errorf("unsupported operation %v", op)
	}
	if c.isClosed() {
		return nil, nil, errors.ErrClosed
	}
	ids = dedupe(ids)

	bps, err := c.registry.ApplyBatch(ctx, op, ids)
	if err != nil {
		_, unknown := errors.UnknownBreakpoints(err)
		_, removing := errors.RemovalPending(err)
		if unknown || removing {
			c.stats.Counter("rejected_batches").Inc(1)
		}
		return nil, nil, err
	}
	if op == entity.OpRemove && len(bps) < len(ids) {
		c.logger.Infow("breakpoints removed", "count", len(ids)-len(bps))
	}

	// Breakpoints deleted outright still belong to the batch, with no pairs.
	return c.start(op, entity.TriggerUser, ids, bps, nil)
}

// start dispatches in the background. The final result is published and sent on the returned channel.
func (c *coordinator) start(op entity.Operation, trigger entity.Trigger, ids []entity.BreakpointID, bps []entity.Breakpoint, targets []entity.BackendID) (*entity.BatchResult, <-chan *entity.BatchResult, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, nil, fmt.Errorf("generating batch id: %w", err)
	}

	final := make(chan *entity.BatchResult, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil, errors.ErrClosed
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		res := c.dispatch(id, op, trigger, ids, bps, targets)
		final <- res
	}()
	return entity.NewBatchResult(id, op, trigger, ids), final, nil
}

func (c *coordinator) dispatch(id uuid.UUID, op entity.Operation, trigger entity.Trigger, ids []entity.BreakpointID, bps []entity.Breakpoint, targets []entity.BackendID) *entity.BatchResult {
	logger := c.logger.With("batch", id.String(), "op", op.String(), "trigger", string(trigger))
	logger.Debugw("dispatching batch", "breakpoints", len(bps))

	rec := newRecorder(c.registry, logger, c.stats)
	pairs := c.provider.Dispatch(c.ctx, op, bps, targets, rec)

	res := entity.NewBatchResult(id, op, trigger, ids)
	for _, pr := range pairs {
		pr = rec.finalize(c.ctx, pr)
		if pr.Outcome == entity.OutcomeFailed {
			logger.Warnw("breakpoint operation failed on backend",
				"breakpoint", pr.BreakpointID.String(), "backend", pr.BackendID.String(), "state", pr.State.String(), zap.Error(pr.Err))
		}
		res.Add(pr)
	}

	c.stats.Tagged(map[string]string{"op": op.String(), "trigger": string(trigger)}).Counter("batches").Inc(1)
	if res.HasFailures() {
		c.stats.Counter("batches_with_failures").Inc(1)
	}
	logger.Infow("batch completed", "pairs", len(res.Pairs), "failed", res.HasFailures())
	c.changes.Publish(res)
	return res
}

func (c *coordinator) StatusOf(ctx context.Context, ids []entity.BreakpointID) (map[entity.BreakpointID][]entity.Instance, error) {
	if len(ids) == 0 {
		all, err := c.registry.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, bp := range all {
			ids = append(ids, bp.ID)
		}
	}
	if missing := c.registry.Missing(ctx, ids); len(missing) > 0 {
		return nil, &errors.UnknownBreakpointError{IDs: missing}
	}

	status := make(map[entity.BreakpointID][]entity.Instance, len(ids))
	for _, id := range ids {
		insts, err := c.registry.InstancesOf(ctx, id)
		if err != nil {
			return nil, err
		}
		status[id] = insts
	}
	return status, nil
}

func (c *coordinator) Subscribe() (<-chan *entity.BatchResult, func()) {
	return c.changes.Subscribe()
}

// Close stops event handling and waits for outstanding batches. Requests still in flight are cancelled.
func (c *coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.stopEvents()
	c.cancel()
	c.wg.Wait()
	c.changes.Close()
	return nil
}

func (c *coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func dedupe(ids []entity.BreakpointID) []entity.BreakpointID {
	seen := make(map[entity.BreakpointID]struct{}, len(ids))
	out := make([]entity.BreakpointID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
