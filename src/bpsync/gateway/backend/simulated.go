package backend

import (
	"context"
	"sync"
	"time"

	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/internal/notifier"
	"go.uber.org/zap"
)

// SimulatedParams configure a Simulated backend.
type SimulatedParams struct {
	ID      entity.BackendID
	Modules entity.ModuleMap
	// Latency delays every acknowledgment. Zero acknowledges synchronously.
	Latency time.Duration
	Logger  *zap.SugaredLogger
}

// SimulatedCall is one request received by a Simulated backend.
type SimulatedCall struct {
	Op      entity.Operation
	Request entity.Request
}

// Simulated is an in-memory debugger backend with a scriptable target.
type Simulated struct {
	id      entity.BackendID
	latency time.Duration
	logger  *zap.SugaredLogger

	mu          sync.Mutex
	state       entity.ConnectionState
	modules     entity.ModuleMap
	paused      bool
	held        []*heldRequest
	failures    map[entity.BreakpointID][]errors.Reason
	breakpoints map[entity.BreakpointID]*simBreakpoint
	calls       []SimulatedCall
	inFlight    map[entity.BreakpointID]int
	maxInFlight map[entity.BreakpointID]int
	closed      bool

	events  notifier.Broadcaster[entity.Event]
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type heldRequest struct {
	op     entity.Operation
	req    entity.Request
	future *Future
}

type simBreakpoint struct {
	enabled bool
	hit     bool
}

func (b *simBreakpoint) state() entity.InstanceState {
	switch {
	case b.hit:
		return entity.StateHit
	case b.enabled:
		return entity.StateActiveEnabled
	}
	return entity.StateActiveDisabled
}

var _ Handle = (*Simulated)(nil)

// NewSimulated creates a connected Simulated backend.
func NewSimulated(p SimulatedParams) *Simulated {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Simulated{
		id:          p.ID,
		latency:     p.Latency,
		logger:      logger.With("backend", string(p.ID)),
		state:       entity.ConnectionConnected,
		modules:     append(entity.ModuleMap(nil), p.Modules...),
		failures:    make(map[entity.BreakpointID][]errors.Reason),
		breakpoints: make(map[entity.BreakpointID]*simBreakpoint),
		inFlight:    make(map[entity.BreakpointID]int),
		maxInFlight: make(map[entity.BreakpointID]int),
		events:      notifier.New[entity.Event](notifier.DefaultBufferSize),
		closeCh:     make(chan struct{}),
	}
}

// ID returns the backend id.
func (s *Simulated) ID() entity.BackendID {
	return s.id
}

// ConnectionState returns the current connection state.
func (s *Simulated) ConnectionState() entity.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Covers reports whether the address falls into a loaded module.
func (s *Simulated) Covers(addr entity.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modules.Contains(addr)
}

// RequestSet places a breakpoint.
func (s *Simulated) RequestSet(ctx context.Context, req entity.Request) *Future {
	return s.request(entity.OpSet, req)
}

// RequestEnable enables a placed breakpoint.
func (s *Simulated) RequestEnable(ctx context.Context, req entity.Request) *Future {
	return s.request(entity.OpEnable, req)
}

// RequestDisable disables a placed breakpoint.
func (s *Simulated) RequestDisable(ctx context.Context, req entity.Request) *Future {
	return s.request(entity.OpDisable, req)
}

// RequestRemove removes a breakpoint. Removing an unknown breakpoint succeeds.
func (s *Simulated) RequestRemove(ctx context.Context, req entity.Request) *Future {
	return s.request(entity.OpRemove, req)
}

// Subscribe returns unsolicited events.
func (s *Simulated) Subscribe() (<-chan entity.Event, func()) {
	return s.events.Subscribe()
}

// Close rejects held requests, stops pending acknowledgments and closes subscriptions.
func (s *Simulated) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	s.rejectHeldLocked(errors.ReasonDisconnected)
	s.mu.Unlock()

	s.wg.Wait()
	s.events.Close()
	return nil
}

func (s *Simulated) request(op entity.Operation, req entity.Request) *Future {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, SimulatedCall{Op: op, Request: req})
	if s.closed || s.state != entity.ConnectionConnected {
		return Failed(errors.NewBackendError(s.id, errors.ReasonDisconnected, "not connected"))
	}

	id := req.BreakpointID
	s.inFlight[id]++
	if s.inFlight[id] > s.maxInFlight[id] {
		s.maxInFlight[id] = s.inFlight[id]
	}

	f := NewFuture()
	switch {
	case s.paused:
		s.held = append(s.held, &heldRequest{op: op, req: req, future: f})
	case s.latency > 0:
		s.wg.Add(1)
		go s.delayed(op, req, f)
	default:
		s.completeLocked(op, req, f)
	}
	return f
}

func (s *Simulated) delayed(op entity.Operation, req entity.Request, f *Future) {
	defer s.wg.Done()

	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
	case <-s.closeCh:
		s.mu.Lock()
		s.inFlight[req.BreakpointID]--
		s.mu.Unlock()
		f.Reject(errors.NewBackendError(s.id, errors.ReasonDisconnected, "backend closed"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		// Paused while the acknowledgment was on its way.
		s.held = append(s.held, &heldRequest{op: op, req: req, future: f})
		return
	}
	s.completeLocked(op, req, f)
}

func (s *Simulated) completeLocked(op entity.Operation, req entity.Request, f *Future) {
	ack, err := s.applyLocked(op, req)
	if err != nil {
		f.Reject(err)
		return
	}
	f.Resolve(ack)
}

func (s *Simulated) applyLocked(op entity.Operation, req entity.Request) (entity.Ack, error) {
	id := req.BreakpointID
	s.inFlight[id]--

	if reasons := s.failures[id]; len(reasons) > 0 {
		s.failures[id] = reasons[1:]
		return entity.Ack{}, errors.NewBackendError(s.id, reasons[0], "scripted failure")
	}
	if s.state != entity.ConnectionConnected {
		return entity.Ack{}, errors.NewBackendError(s.id, errors.ReasonDisconnected, "connection lost")
	}

	ack := entity.Ack{BreakpointID: id, BackendID: s.id, Seq: req.Seq}
	switch op {
	case entity.OpSet:
		if !s.modules.Contains(req.Address) {
			return entity.Ack{}, errors.NewBackendError(s.id, errors.ReasonAddressInvalid, "%v is not mapped", req.Address)
		}
		bp := &simBreakpoint{enabled: req.Enabled}
		s.breakpoints[id] = bp
		ack.State = bp.state()
	case entity.OpEnable, entity.OpDisable:
		bp, ok := s.breakpoints[id]
		if !ok {
			return entity.Ack{}, errors.NewBackendError(s.id, errors.ReasonRejected, "breakpoint %q is not set", id)
		}
		bp.enabled = op == entity.OpEnable
		if !bp.enabled {
			bp.hit = false
		}
		ack.State = bp.state()
	case entity.OpRemove:
		delete(s.breakpoints, id)
		ack.State = entity.StateRemoved
	default:
		return entity.Ack{}, errors.NewBackendError(s.id, errors.ReasonRejected, "unsupported operation %v", op)
	}
	s.logger.Debugw("simulated ack", "op", op, "breakpoint", string(id), "seq", req.Seq, "state", ack.State)
	return ack, nil
}

func (s *Simulated) rejectHeldLocked(reason errors.Reason) {
	for _, h := range s.held {
		s.inFlight[h.req.BreakpointID]--
		h.future.Reject(errors.NewBackendError(s.id, reason, "request abandoned"))
	}
	s.held = nil
}

// Pause holds every acknowledgment until Unpause or ReleaseNext.
func (s *Simulated) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Unpause acknowledges held requests in arrival order and stops holding new ones.
func (s *Simulated) Unpause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	held := s.held
	s.held = nil
	for _, h := range held {
		s.completeLocked(h.op, h.req, h.future)
	}
}

// ReleaseNext acknowledges the oldest held request. It reports false if none is held.
func (s *Simulated) ReleaseNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.held) == 0 {
		return false
	}
	h := s.held[0]
	s.held = s.held[1:]
	s.completeLocked(h.op, h.req, h.future)
	return true
}

// Held returns the number of held requests.
func (s *Simulated) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}

// FailNext makes the next request for the breakpoint fail with reason.
func (s *Simulated) FailNext(id entity.BreakpointID, reason errors.Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = append(s.failures[id], reason)
}

// Disconnect drops the connection and fails held requests.
func (s *Simulated) Disconnect() {
	s.setConnection(entity.ConnectionDisconnected)
}

// Reconnect restores the connection. The target keeps its breakpoints.
func (s *Simulated) Reconnect() {
	s.setConnection(entity.ConnectionConnected)
}

// SetError puts the connection in the ERROR state.
func (s *Simulated) SetError() {
	s.setConnection(entity.ConnectionError)
}

func (s *Simulated) setConnection(state entity.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == state {
		return
	}
	s.state = state
	if state != entity.ConnectionConnected {
		s.rejectHeldLocked(errors.ReasonDisconnected)
	}
	s.events.Publish(entity.Event{Type: entity.EventConnectionChanged, Backend: s.id, Connection: state})
}

// Hit halts the target at an enabled breakpoint.
func (s *Simulated) Hit(id entity.BreakpointID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.breakpoints[id]
	if !ok || !bp.enabled {
		return errors.NewBackendError(s.id, errors.ReasonRejected, "breakpoint %q is not armed", id)
	}
	bp.hit = true
	s.events.Publish(entity.Event{Type: entity.EventHit, Backend: s.id, BreakpointID: id, State: entity.StateHit})
	return nil
}

// Continue resumes the target after a hit.
func (s *Simulated) Continue(id entity.BreakpointID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.breakpoints[id]
	if !ok || !bp.hit {
		return errors.NewBackendError(s.id, errors.ReasonRejected, "breakpoint %q is not hit", id)
	}
	bp.hit = false
	s.events.Publish(entity.Event{Type: entity.EventResumed, Backend: s.id, BreakpointID: id, State: bp.state()})
	return nil
}

// ChangeExternally models another client of the backend toggling a breakpoint.
func (s *Simulated) ChangeExternally(id entity.BreakpointID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.breakpoints[id]
	if !ok {
		return errors.NewBackendError(s.id, errors.ReasonRejected, "breakpoint %q is not set", id)
	}
	bp.enabled = enabled
	bp.hit = false
	s.events.Publish(entity.Event{Type: entity.EventStateChanged, Backend: s.id, BreakpointID: id, State: bp.state()})
	return nil
}

// ExitProcess ends the target process. Its breakpoints are gone.
func (s *Simulated) ExitProcess(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakpoints = make(map[entity.BreakpointID]*simBreakpoint)
	s.rejectHeldLocked(errors.ReasonProcessExited)
	s.events.Publish(entity.Event{Type: entity.EventProcessExited, Backend: s.id, Reason: reason})
}

// Detach releases the target process.
func (s *Simulated) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakpoints = make(map[entity.BreakpointID]*simBreakpoint)
	s.events.Publish(entity.Event{Type: entity.EventDetached, Backend: s.id})
}

// LoadModules replaces the module map.
func (s *Simulated) LoadModules(modules entity.ModuleMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules = append(entity.ModuleMap(nil), modules...)
	s.events.Publish(entity.Event{Type: entity.EventModulesChanged, Backend: s.id, Modules: s.modules})
}

// Calls returns every request received so far.
func (s *Simulated) Calls() []SimulatedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimulatedCall(nil), s.calls...)
}

// CallCount returns how many requests of the given operation were received.
func (s *Simulated) CallCount(op entity.Operation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// MaxInFlight returns the highest number of unacknowledged requests seen for one breakpoint.
func (s *Simulated) MaxInFlight(id entity.BreakpointID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight[id]
}

// TargetState returns the state the target holds for a breakpoint, and false if it holds none.
func (s *Simulated) TargetState(id entity.BreakpointID) (entity.InstanceState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.breakpoints[id]
	if !ok {
		return entity.StateRemoved, false
	}
	return bp.state(), true
}
