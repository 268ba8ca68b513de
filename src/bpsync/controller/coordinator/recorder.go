package coordinator

import (
	"context"
	"sync"

	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/repository/registry"
	"go.uber.org/zap"
)

const _reasonIllegalTransition = "illegal-transition"

type pairSeq struct {
	bp      entity.BreakpointID
	backend entity.BackendID
	seq     uint64
}

type prior struct {
	inst    entity.Instance
	existed bool
}

// recorder writes one batch's requests and acknowledgments into the registry.
// It is the only writer of instance state for requests made by the coordinator.
type recorder struct {
	registry registry.Repository
	logger   *zap.SugaredLogger
	stats    tally.Scope

	mu        sync.Mutex
	priors    map[pairSeq]prior
	overrides map[pairSeq]error
}

func newRecorder(reg registry.Repository, logger *zap.SugaredLogger, stats tally.Scope) *recorder {
	return &recorder{
		registry:  reg,
		logger:    logger,
		stats:     stats,
		priors:    make(map[pairSeq]prior),
		overrides: make(map[pairSeq]error),
	}
}

func (r *recorder) Issued(ctx context.Context, op entity.Operation, backend entity.BackendID, req entity.Request) {
	key := pairSeq{bp: req.BreakpointID, backend: backend, seq: req.Seq}
	inst, existed := r.registry.Instance(ctx, req.BreakpointID, backend)
	if !existed {
		inst = entity.Instance{BreakpointID: req.BreakpointID, BackendID: backend}
	}
	r.mu.Lock()
	r.priors[key] = prior{inst: inst, existed: existed}
	r.mu.Unlock()

	var pending entity.InstanceState
	switch op {
	case entity.OpSet:
		pending = entity.StatePendingSet
	case entity.OpRemove:
		pending = entity.StatePendingRemove
	default:
		return
	}
	if _, err := r.registry.RecordInstanceTransition(ctx, req.BreakpointID, backend, pending, req.Seq); err != nil {
		r.logger.Warnw("unable to record pending state",
			"breakpoint", req.BreakpointID.String(), "backend", backend.String(), "state", pending.String(), zap.Error(err))
	}
}

func (r *recorder) Completed(ctx context.Context, res entity.PairResult) {
	key := pairSeq{bp: res.BreakpointID, backend: res.BackendID, seq: res.Seq}
	r.mu.Lock()
	p, issued := r.priors[key]
	delete(r.priors, key)
	r.mu.Unlock()

	switch res.Outcome {
	case entity.OutcomeSucceeded:
		r.record(ctx, key, res.State)
	case entity.OutcomeFailed:
		if be, ok := errors.AsBackendError(res.Err); ok && be.Invalidates() {
			r.invalidate(ctx, key, string(be.Reason))
			return
		}
		// Other failures leave the instance as it was; the pair is reported as a warning.
		if issued {
			r.restore(ctx, p)
		}
	case entity.OutcomeSkipped:
		if issued {
			r.restore(ctx, p)
		}
	}
}

func (r *recorder) record(ctx context.Context, key pairSeq, state entity.InstanceState) {
	_, err := r.registry.RecordInstanceTransition(ctx, key.bp, key.backend, state, key.seq)
	switch {
	case err == nil:
	case errors.IsStale(err):
		r.stats.Counter("stale_acks_discarded").Inc(1)
		r.logger.Debugw("discarding stale acknowledgment", "breakpoint", key.bp.String(), "backend", key.backend.String(), "seq", key.seq)
	case errors.IsIllegalTransition(err):
		r.logger.Warnw("backend acknowledgment violates the instance state machine",
			"breakpoint", key.bp.String(), "backend", key.backend.String(), zap.Error(err))
		r.invalidate(ctx, key, _reasonIllegalTransition)
		r.mu.Lock()
		r.overrides[key] = err
		r.mu.Unlock()
	default:
		if _, ok := errors.UnknownBreakpoints(err); ok {
			r.logger.Debugw("acknowledgment for deleted breakpoint", "breakpoint", key.bp.String(), "backend", key.backend.String())
			return
		}
		r.logger.Warnw("unable to record acknowledgment", "breakpoint", key.bp.String(), "backend", key.backend.String(), zap.Error(err))
	}
}

func (r *recorder) invalidate(ctx context.Context, key pairSeq, reason string) {
	if _, err := r.registry.ForceInvalid(ctx, key.bp, key.backend, reason); err != nil {
		r.logger.Debugw("unable to invalidate instance", "breakpoint", key.bp.String(), "backend", key.backend.String(), zap.Error(err))
		return
	}
	r.stats.Tagged(map[string]string{"reason": reason}).Counter("invalidated").Inc(1)
}

func (r *recorder) restore(ctx context.Context, p prior) {
	if err := r.registry.Restore(ctx, p.inst, p.existed); err != nil {
		r.logger.Debugw("unable to restore instance", "breakpoint", p.inst.BreakpointID.String(), "backend", p.inst.BackendID.String(), zap.Error(err))
	}
}

// finalize reports the pair with the registry's state after recording.
func (r *recorder) finalize(ctx context.Context, pr entity.PairResult) entity.PairResult {
	key := pairSeq{bp: pr.BreakpointID, backend: pr.BackendID, seq: pr.Seq}
	r.mu.Lock()
	err, overridden := r.overrides[key]
	r.mu.Unlock()
	if overridden {
		pr.Outcome = entity.OutcomeFailed
		pr.Err = err
		pr.Message = ""
	}

	pr.State = entity.StateRemoved
	if inst, ok := r.registry.Instance(ctx, pr.BreakpointID, pr.BackendID); ok {
		pr.State = inst.State
	}
	return pr
}
