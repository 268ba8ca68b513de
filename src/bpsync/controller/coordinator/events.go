package coordinator

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"go.uber.org/zap"
)

// watch applies provider events until the subscription ends.
func (c *coordinator) watch(events <-chan entity.Event) {
	defer c.wg.Done()
	for ev := range events {
		c.handleEvent(c.ctx, ev)
	}
}

func (c *coordinator) handleEvent(ctx context.Context, ev entity.Event) {
	logger := c.logger.With("backend", ev.Backend.String(), "event", ev.Type.String())
	// Counted once handled.
	defer c.stats.Tagged(map[string]string{"type": ev.Type.String()}).Counter("backend_events").Inc(1)

	switch ev.Type {
	case entity.EventHit:
		c.observe(ctx, logger, ev, entity.StateHit)
	case entity.EventResumed:
		state := ev.State
		if state == entity.StateRemoved {
			state = entity.StateActiveEnabled
		}
		c.observe(ctx, logger, ev, state)
	case entity.EventStateChanged:
		c.observe(ctx, logger, ev, ev.State)
	case entity.EventProcessExited:
		c.processExited(ctx, logger, ev)
	case entity.EventDetached:
		dropped, err := c.registry.DropBackend(ctx, ev.Backend)
		if err != nil {
			logger.Warnw("unable to drop instances", zap.Error(err))
			return
		}
		logger.Infow("backend detached, instances dropped", "instances", len(dropped))
		pairs := make([]entity.PairResult, len(dropped))
		for i, inst := range dropped {
			pairs[i] = observed(inst.BreakpointID, ev.Backend, entity.StateRemoved)
		}
		c.publishObserved(pairs)
	case entity.EventModulesChanged:
		c.modulesChanged(ctx, logger, ev)
		c.reconcile(ctx, logger, ev.Backend)
	case entity.EventAttached, entity.EventReconnected:
		c.reconcile(ctx, logger, ev.Backend)
	case entity.EventConnectionChanged:
		logger.Infow("backend connection changed", "connection", ev.Connection.String())
	}
}

// observe records a state the backend reported on its own.
func (c *coordinator) observe(ctx context.Context, logger *zap.SugaredLogger, ev entity.Event, state entity.InstanceState) {
	pr := observed(ev.BreakpointID, ev.Backend, state)
	inst, err := c.registry.RecordInstanceTransition(ctx, ev.BreakpointID, ev.Backend, state, 0)
	switch {
	case err == nil:
		pr.State = inst.State
	case errors.IsIllegalTransition(err):
		logger.Warnw("backend reported a state the instance cannot reach", "breakpoint", ev.BreakpointID.String(), zap.Error(err))
		if inst, ierr := c.registry.ForceInvalid(ctx, ev.BreakpointID, ev.Backend, _reasonIllegalTransition); ierr == nil {
			pr.State = inst.State
		}
		pr.Outcome = entity.OutcomeFailed
		pr.Err = err
	default:
		// Breakpoints this engine does not manage are ignored.
		logger.Debugw("ignoring backend event", "breakpoint", ev.BreakpointID.String(), zap.Error(err))
		return
	}
	c.publishObserved([]entity.PairResult{pr})
}

func (c *coordinator) processExited(ctx context.Context, logger *zap.SugaredLogger, ev entity.Event) {
	insts := c.registry.InstancesOn(ctx, ev.Backend)
	logger.Infow("target process exited", "reason", ev.Reason, "instances", len(insts))

	var pairs []entity.PairResult
	for _, inst := range insts {
		updated, err := c.registry.ForceInvalid(ctx, inst.BreakpointID, ev.Backend, string(errors.ReasonProcessExited))
		if err != nil {
			continue
		}
		pairs = append(pairs, observed(inst.BreakpointID, ev.Backend, updated.State))
	}
	c.publishObserved(pairs)
}

// modulesChanged drops the instances whose address no longer applies to the backend's process.
func (c *coordinator) modulesChanged(ctx context.Context, logger *zap.SugaredLogger, ev entity.Event) {
	h, err := c.provider.Handle(ctx, ev.Backend)
	if err != nil {
		return
	}

	var pairs []entity.PairResult
	for _, inst := range c.registry.InstancesOn(ctx, ev.Backend) {
		bp, err := c.registry.Get(ctx, inst.BreakpointID)
		if err != nil || h.Covers(bp.Address) {
			continue
		}
		if err := c.registry.DropInstance(ctx, inst.BreakpointID, ev.Backend); err != nil {
			continue
		}
		pairs = append(pairs, observed(inst.BreakpointID, ev.Backend, entity.StateRemoved))
	}
	if len(pairs) > 0 {
		logger.Infow("module unloaded, instances dropped", "instances", len(pairs))
	}
	c.publishObserved(pairs)
}

// reconcile re-applies desired state to a backend that attached or came back.
func (c *coordinator) reconcile(ctx context.Context, logger *zap.SugaredLogger, id entity.BackendID) {
	h, err := c.provider.Handle(ctx, id)
	if err != nil || h.ConnectionState() != entity.ConnectionConnected {
		return
	}
	all, err := c.registry.List(ctx)
	if err != nil {
		logger.Warnw("unable to list breakpoints", zap.Error(err))
		return
	}

	var sets, removes []entity.Breakpoint
	for _, bp := range all {
		inst, ok := c.registry.Instance(ctx, bp.ID, id)
		switch {
		case bp.RemoveRequested:
			if ok {
				removes = append(removes, *bp)
			}
		case !ok:
			if h.Covers(bp.Address) {
				sets = append(sets, *bp)
			}
		case inst.State.Pending():
			// The lane already has a request in flight.
		case inst.State == entity.StateInvalid || !inst.State.Matches(bp.Desired):
			sets = append(sets, *bp)
		}
	}
	if len(sets) == 0 && len(removes) == 0 {
		return
	}

	logger.Infow("reconciling backend", "set", len(sets), "remove", len(removes))
	targets := []entity.BackendID{id}
	for op, bps := range map[entity.Operation][]entity.Breakpoint{entity.OpSet: sets, entity.OpRemove: removes} {
		if len(bps) == 0 {
			continue
		}
		ids := make([]entity.BreakpointID, len(bps))
		for i, bp := range bps {
			ids[i] = bp.ID
		}
		if _, _, err := c.start(op, entity.TriggerReconcile, ids, bps, targets); err != nil {
			logger.Debugw("reconciliation not started", zap.Error(err))
		}
	}
}

func observed(bp entity.BreakpointID, backend entity.BackendID, state entity.InstanceState) entity.PairResult {
	return entity.PairResult{
		BreakpointID: bp,
		BackendID:    backend,
		Op:           entity.OpObserve,
		Outcome:      entity.OutcomeSucceeded,
		State:        state,
	}
}

// publishObserved emits a backend-triggered result on the change stream.
func (c *coordinator) publishObserved(pairs []entity.PairResult) {
	if len(pairs) == 0 {
		return
	}
	res := entity.NewBatchResult(uuid.Must(uuid.NewV4()), entity.OpObserve, entity.TriggerBackend, nil)
	for _, pr := range pairs {
		res.Add(pr)
	}
	c.changes.Publish(res)
}
