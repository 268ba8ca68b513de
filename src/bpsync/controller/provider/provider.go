// Package provider owns the attached debugger backends and routes breakpoint operations to them.
//
// Requests for one (breakpoint, backend) pair run through a lane: a queue drained by a single
// goroutine, so at most one request per pair is in flight and acknowledgments apply in issue order.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/gateway/backend"
	"github.com/uber/bpsync/src/bpsync/internal/clock"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/internal/notifier"
	"github.com/uber/bpsync/src/bpsync/repository/registry"
	"go.uber.org/atomic"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_dispatchKey = "dispatch"
	_notifierKey = "notifier.bufferSize"

	_defaultRequestTimeout = 5 * time.Second
	_defaultBackoffBase    = 100 * time.Millisecond
	_defaultBackoffMax     = 10 * time.Second
)

// DispatchConfig bounds how long the provider waits on backends.
type DispatchConfig struct {
	RequestTimeoutMs int `yaml:"requestTimeoutMs"`
	BackoffBaseMs    int `yaml:"backoffBaseMs"`
	BackoffMaxMs     int `yaml:"backoffMaxMs"`
}

// Recorder observes requests from inside their lane.
type Recorder interface {
	// Issued is called right before a request is sent to the backend.
	Issued(ctx context.Context, op entity.Operation, backend entity.BackendID, req entity.Request)
	// Completed is called with the result of every request that reached the head of its lane,
	// before the next request for the same pair is planned.
	Completed(ctx context.Context, result entity.PairResult)
}

// Provider owns the set of attached backends.
type Provider interface {
	// Attach takes ownership of the handle. Detach and Close close it.
	Attach(ctx context.Context, h backend.Handle) error
	Detach(ctx context.Context, id entity.BackendID) error
	AttachedBackends(ctx context.Context) []entity.BackendID
	Handle(ctx context.Context, id entity.BackendID) (backend.Handle, error)
	// Degraded reports whether the backend's last request timed out.
	Degraded(id entity.BackendID) bool

	// Dispatch applies op to every routed pair and returns once each is acknowledged, failed, or skipped.
	// With no targets a breakpoint is routed to the backends covering its address and to those already holding an instance.
	Dispatch(ctx context.Context, op entity.Operation, bps []entity.Breakpoint, targets []entity.BackendID, rec Recorder) []entity.PairResult

	// Subscribe returns attach, detach and reconnect events plus every event the backends report.
	Subscribe() (<-chan entity.Event, func())
	Close() error
}

// Params are inbound parameters to initialize a new Provider.
type Params struct {
	fx.In

	Registry  registry.Repository
	Config    config.Provider
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Clock     clock.Clock
	Lifecycle fx.Lifecycle
}

type attachment struct {
	handle   backend.Handle
	cancel   func()
	timeouts *atomic.Int64
	// seqFloor is the highest sequence number of any lane retired on this backend.
	seqFloor *atomic.Uint64
}

type pairKey struct {
	bp      entity.BreakpointID
	backend entity.BackendID
}

type job struct {
	op      entity.Operation
	bp      entity.Breakpoint
	backend entity.BackendID
	seq     uint64
	rec     Recorder
	ctx     context.Context
	cancel  context.CancelFunc
	result  chan entity.PairResult

	// plan is fixed when the job reaches the head of its lane.
	plan plan
}

type plan struct {
	op        entity.Operation
	desired   entity.DesiredState
	noop      bool
	cancelled bool
	state     entity.InstanceState
}

type lane struct {
	key      pairKey
	seq      *atomic.Uint64
	queue    []*job
	inflight *job
	running  bool
}

type provider struct {
	registry registry.Reader
	logger   *zap.SugaredLogger
	stats    tally.Scope
	clock    clock.Clock

	requestTimeout time.Duration
	backoffBase    time.Duration
	backoffMax     time.Duration

	mu       sync.Mutex
	backends map[entity.BackendID]*attachment
	lanes    map[pairKey]*lane
	closed   bool

	events notifier.Broadcaster[entity.Event]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Provider configured from the dispatch key.
func New(p Params) (Provider, error) {
	var cfg DispatchConfig
	if err := p.Config.Get(_dispatchKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("unable to read %s config: %w", _dispatchKey, err)
	}
	var bufferSize int
	if err := p.Config.Get(_notifierKey).Populate(&bufferSize); err != nil {
		return nil, fmt.Errorf("unable to read %s config: %w", _notifierKey, err)
	}

	pr := &provider{
		registry:       p.Registry,
		logger:         p.Logger.With("component", "provider"),
		stats:          p.Stats.SubScope("provider"),
		clock:          p.Clock,
		requestTimeout: durationOr(cfg.RequestTimeoutMs, _defaultRequestTimeout),
		backoffBase:    durationOr(cfg.BackoffBaseMs, _defaultBackoffBase),
		backoffMax:     durationOr(cfg.BackoffMaxMs, _defaultBackoffMax),
		backends:       make(map[entity.BackendID]*attachment),
		lanes:          make(map[pairKey]*lane),
		events:         notifier.New[entity.Event](bufferSize),
	}
	if pr.backoffMax < pr.backoffBase {
		pr.backoffMax = pr.backoffBase
	}
	pr.ctx, pr.cancel = context.WithCancel(context.Background())

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return pr.Close()
			},
		})
	}
	return pr, nil
}

func durationOr(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func (p *provider) Attach(ctx context.Context, h backend.Handle) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.ErrClosed
	}
	if _, ok := p.backends[h.ID()]; ok {
		p.mu.Unlock()
		return fmt.Errorf("backend %q is already attached", h.ID())
	}
	events, cancel := h.Subscribe()
	a := &attachment{handle: h, cancel: cancel, timeouts: atomic.NewInt64(0), seqFloor: atomic.NewUint64(0)}
	p.backends[h.ID()] = a
	p.wg.Add(1)
	go p.watch(a, events)
	p.updateGauges()
	p.mu.Unlock()

	p.logger.Infow("backend attached", "backend", h.ID().String(), "connection", h.ConnectionState().String())
	p.events.Publish(entity.Event{Type: entity.EventAttached, Backend: h.ID(), Connection: h.ConnectionState()})
	return nil
}

func (p *provider) Detach(ctx context.Context, id entity.BackendID) error {
	p.mu.Lock()
	a, ok := p.backends[id]
	if ok {
		delete(p.backends, id)
		p.updateGauges()
	}
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("detach %q: %w", id, errors.ErrNoBackend)
	}

	a.cancel()
	err := a.handle.Close()
	p.logger.Infow("backend detached", "backend", id.String())
	p.events.Publish(entity.Event{Type: entity.EventDetached, Backend: id})
	return err
}

func (p *provider) AttachedBackends(ctx context.Context) []entity.BackendID {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]entity.BackendID, 0, len(p.backends))
	for id := range p.backends {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (p *provider) Handle(ctx context.Context, id entity.BackendID) (backend.Handle, error) {
	a, ok := p.attachment(id)
	if !ok {
		return nil, fmt.Errorf("backend %q: %w", id, errors.ErrNoBackend)
	}
	return a.handle, nil
}

func (p *provider) Degraded(id entity.BackendID) bool {
	a, ok := p.attachment(id)
	return ok && a.timeouts.Load() > 0
}

func (p *provider) Subscribe() (<-chan entity.Event, func()) {
	return p.events.Subscribe()
}

func (p *provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.cancel()
	attached := make([]*attachment, 0, len(p.backends))
	for id, a := range p.backends {
		attached = append(attached, a)
		delete(p.backends, id)
	}
	p.mu.Unlock()

	var err error
	for _, a := range attached {
		a.cancel()
		err = multierr.Append(err, a.handle.Close())
	}
	p.wg.Wait()
	p.events.Close()
	return err
}

func (p *provider) attachment(id entity.BackendID) (*attachment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.backends[id]
	return a, ok
}

// watch forwards a backend's events until its subscription ends.
func (p *provider) watch(a *attachment, events <-chan entity.Event) {
	defer p.wg.Done()

	last := a.handle.ConnectionState()
	for ev := range events {
		p.events.Publish(ev)
		if ev.Type != entity.EventConnectionChanged {
			continue
		}
		if ev.Connection == entity.ConnectionConnected && last != entity.ConnectionConnected {
			p.logger.Infow("backend reconnected", "backend", ev.Backend.String())
			p.events.Publish(entity.Event{Type: entity.EventReconnected, Backend: ev.Backend, Connection: ev.Connection})
		}
		last = ev.Connection
	}
}

func (p *provider) Dispatch(ctx context.Context, op entity.Operation, bps []entity.Breakpoint, targets []entity.BackendID, rec Recorder) []entity.PairResult {
	type slot struct {
		result entity.PairResult
		job    *job
	}

	var slots []slot
	for _, bp := range bps {
		for _, id := range p.route(ctx, bp, targets) {
			a, ok := p.attachment(id)
			if !ok || a.handle.ConnectionState() != entity.ConnectionConnected {
				p.stats.Counter("skipped_disconnected").Inc(1)
				slots = append(slots, slot{result: p.skipped(ctx, op, bp.ID, id, 0, entity.SkipDisconnected)})
				continue
			}
			slots = append(slots, slot{job: p.enqueue(ctx, op, bp, id, rec)})
		}
	}

	results := make([]entity.PairResult, len(slots))
	for i, s := range slots {
		if s.job == nil {
			results[i] = s.result
			continue
		}
		results[i] = <-s.job.result
	}
	return results
}

// route returns the backends a breakpoint is dispatched to.
func (p *provider) route(ctx context.Context, bp entity.Breakpoint, targets []entity.BackendID) []entity.BackendID {
	seen := make(map[entity.BackendID]struct{})
	if len(targets) > 0 {
		for _, id := range targets {
			seen[id] = struct{}{}
		}
	} else {
		p.mu.Lock()
		handles := make([]backend.Handle, 0, len(p.backends))
		for _, a := range p.backends {
			handles = append(handles, a.handle)
		}
		p.mu.Unlock()

		for _, h := range handles {
			if h.Covers(bp.Address) {
				seen[h.ID()] = struct{}{}
			}
		}
		// Unknown ids have no instances; the error carries nothing to route.
		insts, _ := p.registry.InstancesOf(ctx, bp.ID)
		for _, inst := range insts {
			seen[inst.BackendID] = struct{}{}
		}
	}

	ids := make([]entity.BackendID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (p *provider) skipped(ctx context.Context, op entity.Operation, bp entity.BreakpointID, backend entity.BackendID, seq uint64, reason entity.SkipReason) entity.PairResult {
	state := entity.StateRemoved
	if inst, ok := p.registry.Instance(ctx, bp, backend); ok {
		state = inst.State
	}
	return entity.PairResult{
		BreakpointID: bp,
		BackendID:    backend,
		Op:           op,
		Seq:          seq,
		Outcome:      entity.OutcomeSkipped,
		SkipReason:   reason,
		State:        state,
	}
}

// enqueue appends a job to its lane, applying the supersede and cancel rules, and starts the lane if idle.
func (p *provider) enqueue(ctx context.Context, op entity.Operation, bp entity.Breakpoint, id entity.BackendID, rec Recorder) *job {
	key := pairKey{bp: bp.ID, backend: id}
	jctx, cancel := context.WithCancel(ctx)
	j := &job{
		op:      op,
		bp:      bp,
		backend: id,
		rec:     rec,
		ctx:     jctx,
		cancel:  cancel,
		result:  make(chan entity.PairResult, 1),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.finishLocked(j, p.skipped(ctx, op, bp.ID, id, 0, entity.SkipCancelled))
		return j
	}

	l, ok := p.lanes[key]
	if !ok {
		// Continue from the registry and from retired lanes so sequence numbers stay monotonic across lane lifetimes.
		inst, _ := p.registry.Instance(ctx, bp.ID, id)
		seq := inst.Seq
		if a, ok := p.backends[id]; ok && a.seqFloor.Load() > seq {
			seq = a.seqFloor.Load()
		}
		l = &lane{key: key, seq: atomic.NewUint64(seq)}
		p.lanes[key] = l
	}
	j.seq = l.seq.Inc()

	switch op {
	case entity.OpEnable, entity.OpDisable:
		kept := l.queue[:0]
		for _, q := range l.queue {
			if q.op == entity.OpEnable || q.op == entity.OpDisable {
				p.stats.Counter("superseded").Inc(1)
				p.finishLocked(q, p.skipped(q.ctx, q.op, q.bp.ID, id, q.seq, entity.SkipSuperseded))
				continue
			}
			kept = append(kept, q)
		}
		l.queue = kept
	case entity.OpRemove:
		for _, q := range l.queue {
			p.stats.Counter("cancelled").Inc(1)
			p.finishLocked(q, p.skipped(q.ctx, q.op, q.bp.ID, id, q.seq, entity.SkipCancelled))
		}
		l.queue = nil
		// A set in flight is left alone; the backend may already hold the breakpoint.
		if f := l.inflight; f != nil && (f.plan.op == entity.OpEnable || f.plan.op == entity.OpDisable) {
			p.logger.Debugw("cancelling in-flight request", "breakpoint", bp.ID.String(), "backend", id.String(), "op", f.plan.op.String(), "seq", f.seq)
			f.cancel()
		}
	}

	l.queue = append(l.queue, j)
	if !l.running {
		l.running = true
		p.wg.Add(1)
		go p.drain(l)
	}
	return j
}

// retireLocked forgets an idle lane. Its last sequence number raises the backend's floor.
func (p *provider) retireLocked(l *lane) {
	if p.lanes[l.key] != l {
		return
	}
	delete(p.lanes, l.key)
	if a, ok := p.backends[l.key.backend]; ok && l.seq.Load() > a.seqFloor.Load() {
		a.seqFloor.Store(l.seq.Load())
	}
}

func (p *provider) finishLocked(j *job, result entity.PairResult) {
	j.cancel()
	j.result <- result
}

// drain runs a lane's jobs one at a time until the queue is empty.
func (p *provider) drain(l *lane) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		if len(l.queue) == 0 {
			l.inflight = nil
			l.running = false
			p.retireLocked(l)
			p.mu.Unlock()
			return
		}
		j := l.queue[0]
		l.queue = l.queue[1:]
		j.plan = p.plan(j)
		l.inflight = j
		p.mu.Unlock()

		result := p.execute(j)
		if j.rec != nil {
			j.rec.Completed(j.ctx, result)
		}
		j.cancel()
		j.result <- result
	}
}

// plan decides what a job sends given the instance's current state.
// ENABLE, DISABLE and SET place the breakpoint when the backend does not hold it, and
// do nothing when it already reflects the desired state. They are cancelled once the
// breakpoint is deleted or being removed.
func (p *provider) plan(j *job) plan {
	if j.op != entity.OpRemove {
		if bp, err := p.registry.Get(j.ctx, j.bp.ID); err != nil || bp.RemoveRequested {
			return plan{op: j.op, cancelled: true}
		}
	}

	inst, ok := p.registry.Instance(j.ctx, j.bp.ID, j.backend)
	state := entity.StateRemoved
	if ok {
		state = inst.State
	}

	if j.op == entity.OpRemove {
		if !ok || state == entity.StateInvalid {
			return plan{op: entity.OpRemove, noop: true, state: entity.StateRemoved}
		}
		return plan{op: entity.OpRemove}
	}

	desired := j.bp.Desired
	switch j.op {
	case entity.OpEnable:
		desired = entity.DesiredEnabled
	case entity.OpDisable:
		desired = entity.DesiredDisabled
	}
	if !state.Active() {
		return plan{op: entity.OpSet, desired: desired}
	}
	if state.Matches(desired) {
		return plan{op: j.op, desired: desired, noop: true, state: state}
	}
	if desired == entity.DesiredEnabled {
		return plan{op: entity.OpEnable, desired: desired}
	}
	return plan{op: entity.OpDisable, desired: desired}
}

func (p *provider) execute(j *job) entity.PairResult {
	result := entity.PairResult{
		BreakpointID: j.bp.ID,
		BackendID:    j.backend,
		Op:           j.op,
		Seq:          j.seq,
	}
	if p.cancelled(j) || j.plan.cancelled {
		return p.skipped(j.ctx, j.op, j.bp.ID, j.backend, j.seq, entity.SkipCancelled)
	}
	if j.plan.noop {
		p.stats.Counter("fast_path").Inc(1)
		result.State = j.plan.state
		return result
	}

	a, ok := p.attachment(j.backend)
	if !ok || a.handle.ConnectionState() != entity.ConnectionConnected {
		return p.skipped(j.ctx, j.op, j.bp.ID, j.backend, j.seq, entity.SkipDisconnected)
	}

	if n := a.timeouts.Load(); n > 0 {
		delay := p.backoff(n)
		p.logger.Debugw("backing off degraded backend", "backend", j.backend.String(), "delay", delay)
		select {
		case <-p.clock.After(delay):
		case <-j.ctx.Done():
			return p.skipped(j.ctx, j.op, j.bp.ID, j.backend, j.seq, entity.SkipCancelled)
		case <-p.ctx.Done():
			return p.skipped(j.ctx, j.op, j.bp.ID, j.backend, j.seq, entity.SkipCancelled)
		}
	}

	req := entity.Request{BreakpointID: j.bp.ID, Seq: j.seq}
	if j.plan.op == entity.OpSet {
		bp := j.bp
		bp.Desired = j.plan.desired
		req = entity.SetRequest(bp, j.seq)
	}
	if j.rec != nil {
		j.rec.Issued(j.ctx, j.plan.op, j.backend, req)
	}

	p.stats.Tagged(map[string]string{"op": j.plan.op.String()}).Counter("requests").Inc(1)
	reqCtx, cancel := context.WithTimeout(j.ctx, p.requestTimeout)
	defer cancel()
	f := backend.Request(reqCtx, a.handle, j.plan.op, req)

	select {
	case <-f.Done():
	case <-reqCtx.Done():
	case <-p.ctx.Done():
	}

	select {
	case <-f.Done():
		ack, err := f.Result()
		if err == nil {
			a.timeouts.Store(0)
			result.State = ack.State
			return result
		}
		if p.cancelled(j) && errors.HasReason(err, errors.ReasonCancelled) {
			return p.skipped(j.ctx, j.op, j.bp.ID, j.backend, j.seq, entity.SkipCancelled)
		}
		return p.failed(j, a, result, err)
	default:
	}

	// Whatever the backend sends later is discarded with the abandoned future.
	if p.cancelled(j) {
		return p.skipped(j.ctx, j.op, j.bp.ID, j.backend, j.seq, entity.SkipCancelled)
	}
	return p.failed(j, a, result, errors.NewBackendError(j.backend, errors.ReasonTimeout,
		"%v %q: no acknowledgment within %v", j.plan.op, j.bp.ID, p.requestTimeout))
}

func (p *provider) cancelled(j *job) bool {
	return j.ctx.Err() != nil || p.ctx.Err() != nil
}

func (p *provider) failed(j *job, a *attachment, result entity.PairResult, err error) entity.PairResult {
	if errors.HasReason(err, errors.ReasonTimeout) {
		n := a.timeouts.Inc()
		p.stats.Counter("timeouts").Inc(1)
		p.logger.Warnw("backend request timed out, backend degraded",
			"backend", j.backend.String(), "breakpoint", j.bp.ID.String(), "consecutiveTimeouts", n)
	}
	p.stats.Counter("failures").Inc(1)

	result.Outcome = entity.OutcomeFailed
	result.Err = err
	result.State = entity.StateRemoved
	if inst, ok := p.registry.Instance(j.ctx, j.bp.ID, j.backend); ok {
		result.State = inst.State
	}
	return result
}

// backoff doubles from the base per consecutive timeout, up to the maximum.
func (p *provider) backoff(timeouts int64) time.Duration {
	delay := p.backoffBase
	for i := int64(1); i < timeouts && delay < p.backoffMax; i++ {
		delay *= 2
	}
	if delay > p.backoffMax {
		delay = p.backoffMax
	}
	return delay
}

func (p *provider) updateGauges() {
	p.stats.Gauge("backends").Update(float64(len(p.backends)))
}
