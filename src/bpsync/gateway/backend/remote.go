package backend

import (
	"context"
	"encoding/json"
	stderr "errors"
	"sync"
	"time"

	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/clock"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/internal/notifier"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// Methods called on a remote backend.
const (
	MethodDescribe = "target/describe"
	MethodSet      = "breakpoint/set"
	MethodEnable   = "breakpoint/enable"
	MethodDisable  = "breakpoint/disable"
	MethodRemove   = "breakpoint/remove"
)

// Notifications sent by a remote backend.
const (
	NotifyHit      = "breakpoint/hit"
	NotifyResumed  = "breakpoint/resumed"
	NotifyChanged  = "breakpoint/changed"
	NotifyExited   = "target/exited"
	NotifyDetached = "target/detached"
	NotifyModules  = "target/modules"
)

// Error codes a remote backend uses to classify failures. Others map to rejected.
const (
	CodeAddressInvalid jsonrpc2.Code = -32001
	CodeProcessExited  jsonrpc2.Code = -32002
	CodeRejected       jsonrpc2.Code = -32003
)

const (
	_defaultDescribeTimeout = 5 * time.Second
	_defaultBackoffBase     = 250 * time.Millisecond
	_defaultBackoffMax      = 30 * time.Second
)

// RemoteParams configure a Remote backend.
type RemoteParams struct {
	ID     entity.BackendID
	Dialer Dialer
	Logger *zap.SugaredLogger
	Clock  clock.Clock
	// BackoffBase and BackoffMax bound the delay between reconnection attempts.
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	DescribeTimeout time.Duration
}

// DescribeResult is the response to target/describe.
type DescribeResult struct {
	Modules entity.ModuleMap `json:"modules"`
}

// AckResult is the response to a breakpoint request.
type AckResult struct {
	State entity.InstanceState `json:"state"`
}

// TargetNotification is the payload of every notification a remote backend sends.
type TargetNotification struct {
	BreakpointID entity.BreakpointID  `json:"breakpointId,omitempty"`
	State        entity.InstanceState `json:"state,omitempty"`
	Modules      entity.ModuleMap     `json:"modules,omitempty"`
	Reason       string               `json:"reason,omitempty"`
}

// Remote is a debugger backend reached over JSON-RPC 2.0. It reconnects on its own.
type Remote struct {
	id     entity.BackendID
	dialer Dialer
	logger *zap.SugaredLogger
	clock  clock.Clock

	backoffBase     time.Duration
	backoffMax      time.Duration
	describeTimeout time.Duration

	mu      sync.Mutex
	conn    jsonrpc2.Conn
	state   entity.ConnectionState
	modules entity.ModuleMap

	events notifier.Broadcaster[entity.Event]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Handle = (*Remote)(nil)

// NewRemote creates a Remote backend and starts connecting in the background.
func NewRemote(p RemoteParams) *Remote {
	r := &Remote{
		id:              p.ID,
		dialer:          p.Dialer,
		logger:          p.Logger,
		clock:           p.Clock,
		backoffBase:     p.BackoffBase,
		backoffMax:      p.BackoffMax,
		describeTimeout: p.DescribeTimeout,
		state:           entity.ConnectionDisconnected,
		events:          notifier.New[entity.Event](notifier.DefaultBufferSize),
	}
	if r.logger == nil {
		r.logger = zap.NewNop().Sugar()
	}
	r.logger = r.logger.With("backend", string(p.ID), "dialer", p.Dialer.String())
	if r.clock == nil {
		r.clock = clock.New()
	}
	if r.backoffBase <= 0 {
		r.backoffBase = _defaultBackoffBase
	}
	if r.backoffMax < r.backoffBase {
		r.backoffMax = _defaultBackoffMax
	}
	if r.describeTimeout <= 0 {
		r.describeTimeout = _defaultDescribeTimeout
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.wg.Add(1)
	go r.run()
	return r
}

// ID returns the backend id.
func (r *Remote) ID() entity.BackendID {
	return r.id
}

// ConnectionState returns the current connection state.
func (r *Remote) ConnectionState() entity.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Covers reports whether the address falls into a module the target described.
func (r *Remote) Covers(addr entity.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modules.Contains(addr)
}

// RequestSet calls breakpoint/set.
func (r *Remote) RequestSet(ctx context.Context, req entity.Request) *Future {
	return r.request(ctx, MethodSet, req)
}

// RequestEnable calls breakpoint/enable.
func (r *Remote) RequestEnable(ctx context.Context, req entity.Request) *Future {
	return r.request(ctx, MethodEnable, req)
}

// RequestDisable calls breakpoint/disable.
func (r *Remote) RequestDisable(ctx context.Context, req entity.Request) *Future {
	return r.request(ctx, MethodDisable, req)
}

// RequestRemove calls breakpoint/remove.
func (r *Remote) RequestRemove(ctx context.Context, req entity.Request) *Future {
	return r.request(ctx, MethodRemove, req)
}

// Subscribe returns unsolicited events.
func (r *Remote) Subscribe() (<-chan entity.Event, func()) {
	return r.events.Subscribe()
}

// Close stops reconnecting, closes the connection and waits for outstanding calls.
func (r *Remote) Close() error {
	r.cancel()
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()

	if conn != nil {
		// The run loop may close it concurrently; a second close is harmless.
		_ = conn.Close()
	}
	r.wg.Wait()
	r.events.Close()
	return nil
}

func (r *Remote) request(ctx context.Context, method string, req entity.Request) *Future {
	r.mu.Lock()
	conn := r.conn
	if conn == nil || r.ctx.Err() != nil {
		r.mu.Unlock()
		return Failed(errors.NewBackendError(r.id, errors.ReasonDisconnected, "not connected"))
	}
	r.wg.Add(1)
	r.mu.Unlock()

	f := NewFuture()
	go func() {
		defer r.wg.Done()
		var res AckResult
		if err := r.call(ctx, conn, method, req, &res); err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(entity.Ack{
			BreakpointID: req.BreakpointID,
			BackendID:    r.id,
			Seq:          req.Seq,
			State:        res.State,
		})
	}()
	return f
}

// call issues one call and classifies its failure. It also returns when the connection drops.
func (r *Remote) call(ctx context.Context, conn jsonrpc2.Conn, method string, params, result interface{}) error {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-conn.Done():
			cancel()
		case <-callCtx.Done():
		}
	}()

	_, err := conn.Call(callCtx, method, params, result)
	if err == nil {
		return nil
	}

	var rpcErr *jsonrpc2.Error
	switch {
	case stderr.As(err, &rpcErr):
		return errors.NewBackendError(r.id, reasonFromCode(rpcErr.Code), "%s: %s", method, rpcErr.Message)
	case stderr.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewBackendError(r.id, errors.ReasonTimeout, "%s: no response", method)
	case ctx.Err() != nil:
		return errors.NewBackendError(r.id, errors.ReasonCancelled, "%s", method)
	case isDone(conn.Done()):
		return errors.NewBackendError(r.id, errors.ReasonDisconnected, "%s: connection closed", method)
	}
	return errors.NewBackendError(r.id, errors.ReasonTransport, "%s: %v", method, err)
}

func reasonFromCode(code jsonrpc2.Code) errors.Reason {
	switch code {
	case CodeAddressInvalid:
		return errors.ReasonAddressInvalid
	case CodeProcessExited:
		return errors.ReasonProcessExited
	}
	return errors.ReasonRejected
}

func isDone(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// run keeps the backend connected until Close.
func (r *Remote) run() {
	defer r.wg.Done()

	attempts := 0
	for {
		if r.ctx.Err() != nil {
			return
		}

		conn, modules, err := r.connect(r.ctx)
		if err != nil {
			attempts++
			delay := r.backoff(attempts)
			r.logger.Warnw("backend connection failed", "attempt", attempts, "retryIn", delay, zap.Error(err))
			select {
			case <-r.ctx.Done():
				return
			case <-r.clock.After(delay):
			}
			continue
		}

		attempts = 0
		r.mu.Lock()
		r.conn = conn
		r.modules = modules
		r.mu.Unlock()
		r.logger.Infow("backend connected", "modules", len(modules))
		r.setState(entity.ConnectionConnected)

		select {
		case <-conn.Done():
			if err := conn.Err(); err != nil {
				r.logger.Warnw("backend connection lost", zap.Error(err))
			}
		case <-r.ctx.Done():
			conn.Close()
			<-conn.Done()
		}

		r.mu.Lock()
		r.conn = nil
		r.mu.Unlock()
		r.setState(entity.ConnectionDisconnected)
	}
}

func (r *Remote) backoff(attempts int) time.Duration {
	delay := r.backoffBase
	for i := 1; i < attempts && delay < r.backoffMax; i++ {
		delay *= 2
	}
	if delay > r.backoffMax {
		delay = r.backoffMax
	}
	return delay
}

func (r *Remote) connect(ctx context.Context) (jsonrpc2.Conn, entity.ModuleMap, error) {
	stream, err := r.dialer.Dial(ctx)
	if err != nil {
		return nil, nil, err
	}
	conn := jsonrpc2.NewConn(stream)
	conn.Go(ctx, r.handle)

	describeCtx, cancel := context.WithTimeout(ctx, r.describeTimeout)
	defer cancel()
	var desc DescribeResult
	if err := r.call(describeCtx, conn, MethodDescribe, nil, &desc); err != nil {
		conn.Close()
		<-conn.Done()
		return nil, nil, err
	}
	return conn, desc.Modules, nil
}

func (r *Remote) setState(state entity.ConnectionState) {
	r.mu.Lock()
	changed := r.state != state
	r.state = state
	r.mu.Unlock()
	if changed {
		r.events.Publish(entity.Event{Type: entity.EventConnectionChanged, Backend: r.id, Connection: state})
	}
}

// handle receives notifications from the backend.
func (r *Remote) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var n TargetNotification
	if len(req.Params()) > 0 {
		if err := json.Unmarshal(req.Params(), &n); err != nil {
			r.logger.Warnw("malformed backend notification", "method", req.Method(), zap.Error(err))
			return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error()))
		}
	}

	ev := entity.Event{Backend: r.id, BreakpointID: n.BreakpointID, State: n.State, Reason: n.Reason}
	switch req.Method() {
	case NotifyHit:
		ev.Type = entity.EventHit
		ev.State = entity.StateHit
	case NotifyResumed:
		ev.Type = entity.EventResumed
		ev.State = entity.StateActiveEnabled
	case NotifyChanged:
		ev.Type = entity.EventStateChanged
	case NotifyExited:
		ev.Type = entity.EventProcessExited
	case NotifyDetached:
		ev.Type = entity.EventDetached
	case NotifyModules:
		ev.Type = entity.EventModulesChanged
		ev.Modules = n.Modules
		r.mu.Lock()
		r.modules = n.Modules
		r.mu.Unlock()
	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}

	r.events.Publish(ev)
	return reply(ctx, nil, nil)
}
