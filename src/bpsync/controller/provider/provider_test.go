package provider

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/factory"
	"github.com/uber/bpsync/src/bpsync/gateway/backend"
	"github.com/uber/bpsync/src/bpsync/gateway/backend/backendmock"
	"github.com/uber/bpsync/src/bpsync/internal/clock"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/repository/registry"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fixture struct {
	provider Provider
	registry registry.Repository
	clock    *clock.Fake
	rec      *registryRecorder
}

func newFixture(t *testing.T, timeoutMs int) *fixture {
	cfg, err := config.NewStaticProvider(map[string]interface{}{
		"dispatch": map[string]interface{}{
			"requestTimeoutMs": timeoutMs,
			"backoffBaseMs":    100,
			"backoffMaxMs":     400,
		},
		"notifier": map[string]interface{}{"bufferSize": 64},
	})
	require.NoError(t, err)

	reg := registry.New(registry.Params{Stats: tally.NewTestScope("testing", nil)})
	fake := clock.NewFake(time.Now())
	p, err := New(Params{
		Registry: reg,
		Config:   cfg,
		Logger:   zap.NewNop().Sugar(),
		Stats:    tally.NewTestScope("testing", nil),
		Clock:    fake,
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, p.Close()) })
	return &fixture{provider: p, registry: reg, clock: fake, rec: &registryRecorder{registry: reg}}
}

func (f *fixture) sim(t *testing.T, id entity.BackendID, modules ...string) *backend.Simulated {
	s := backend.NewSimulated(backend.SimulatedParams{ID: id, Modules: factory.Modules(modules...)})
	require.NoError(t, f.provider.Attach(context.Background(), s))
	return s
}

func (f *fixture) register(t *testing.T, n int, module string) []entity.Breakpoint {
	var bps []entity.Breakpoint
	for i := 0; i < n; i++ {
		bp := factory.Breakpoint(i, module, uint64(i*4))
		require.NoError(t, f.registry.Register(context.Background(), bp))
		bps = append(bps, *bp)
	}
	return bps
}

// registryRecorder applies results the simplest way: pending states on issue, acks on completion.
type registryRecorder struct {
	registry registry.Repository

	mu        sync.Mutex
	issued    []entity.Request
	completed []entity.PairResult
}

func (r *registryRecorder) Issued(ctx context.Context, op entity.Operation, backend entity.BackendID, req entity.Request) {
	r.mu.Lock()
	r.issued = append(r.issued, req)
	r.mu.Unlock()
	switch op {
	case entity.OpSet:
		r.registry.RecordInstanceTransition(ctx, req.BreakpointID, backend, entity.StatePendingSet, req.Seq)
	case entity.OpRemove:
		r.registry.RecordInstanceTransition(ctx, req.BreakpointID, backend, entity.StatePendingRemove, req.Seq)
	}
}

func (r *registryRecorder) Completed(ctx context.Context, res entity.PairResult) {
	r.mu.Lock()
	r.completed = append(r.completed, res)
	r.mu.Unlock()
	switch res.Outcome {
	case entity.OutcomeSucceeded:
		r.registry.RecordInstanceTransition(ctx, res.BreakpointID, res.BackendID, res.State, res.Seq)
	case entity.OutcomeFailed:
		r.registry.ForceInvalid(ctx, res.BreakpointID, res.BackendID, res.Message)
	}
}

func (r *registryRecorder) issuedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issued)
}

func (f *fixture) state(t *testing.T, bp entity.BreakpointID, b entity.BackendID) entity.InstanceState {
	inst, ok := f.registry.Instance(context.Background(), bp, b)
	if !ok {
		return entity.StateRemoved
	}
	return inst.State
}

func TestAttachDetach(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	events, cancel := f.provider.Subscribe()
	defer cancel()

	f.sim(t, "B", "app")
	f.sim(t, "A", "app")
	assert.Equal(t, []entity.BackendID{"A", "B"}, f.provider.AttachedBackends(ctx))
	assert.Error(t, f.provider.Attach(ctx, backend.NewSimulated(backend.SimulatedParams{ID: "A"})))

	h, err := f.provider.Handle(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, entity.BackendID("A"), h.ID())
	_, err = f.provider.Handle(ctx, "C")
	assert.ErrorIs(t, err, errors.ErrNoBackend)

	require.NoError(t, f.provider.Detach(ctx, "B"))
	assert.ErrorIs(t, f.provider.Detach(ctx, "B"), errors.ErrNoBackend)
	assert.Equal(t, []entity.BackendID{"A"}, f.provider.AttachedBackends(ctx))

	var types []entity.EventType
	for len(types) < 3 {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []entity.EventType{entity.EventAttached, entity.EventAttached, entity.EventDetached}, types)
}

func TestDispatchRoutesToCoveringBackends(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	b := f.sim(t, "B", "libc")
	bps := f.register(t, 2, "app")

	results := f.provider.Dispatch(ctx, entity.OpSet, bps, nil, f.rec)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, entity.BackendID("A"), r.BackendID)
		assert.Equal(t, entity.OutcomeSucceeded, r.Outcome)
		assert.Equal(t, entity.StateActiveEnabled, r.State)
	}
	assert.Equal(t, 2, a.CallCount(entity.OpSet))
	assert.Zero(t, b.CallCount(entity.OpSet))

	// An explicit target is used even when it does not cover the address.
	results = f.provider.Dispatch(ctx, entity.OpSet, bps[:1], []entity.BackendID{"B"}, f.rec)
	require.Len(t, results, 1)
	assert.Equal(t, entity.OutcomeFailed, results[0].Outcome)
	assert.True(t, errors.HasReason(results[0].Err, errors.ReasonAddressInvalid))
}

func TestDispatchFastPath(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	bps := f.register(t, 1, "app")

	f.provider.Dispatch(ctx, entity.OpSet, bps, nil, f.rec)
	f.provider.Dispatch(ctx, entity.OpDisable, bps, nil, f.rec)
	require.Equal(t, entity.StateActiveDisabled, f.state(t, bps[0].ID, "A"))
	assert.Equal(t, 1, a.CallCount(entity.OpDisable))

	results := f.provider.Dispatch(ctx, entity.OpDisable, bps, nil, f.rec)
	require.Len(t, results, 1)
	assert.Equal(t, entity.OutcomeSucceeded, results[0].Outcome)
	assert.Equal(t, entity.StateActiveDisabled, results[0].State)
	assert.Equal(t, 1, a.CallCount(entity.OpDisable), "no backend call for an already disabled instance")

	// SET on a disabled instance of an enabled breakpoint only enables it.
	bps[0].Desired = entity.DesiredEnabled
	f.provider.Dispatch(ctx, entity.OpSet, bps, nil, f.rec)
	assert.Equal(t, 1, a.CallCount(entity.OpSet))
	assert.Equal(t, 1, a.CallCount(entity.OpEnable))
	assert.Equal(t, entity.StateActiveEnabled, f.state(t, bps[0].ID, "A"))
}

func TestDispatchCancelsBreakpointsBeingRemoved(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	bps := f.register(t, 2, "app")

	f.provider.Dispatch(ctx, entity.OpSet, bps[:1], nil, f.rec)
	require.Equal(t, entity.StateActiveEnabled, f.state(t, bps[0].ID, "A"))
	deleted, err := f.registry.MarkRemoveRequested(ctx, bps[0].ID)
	require.NoError(t, err)
	require.False(t, deleted)
	deleted, err = f.registry.MarkRemoveRequested(ctx, bps[1].ID)
	require.NoError(t, err)
	require.True(t, deleted)

	for _, op := range []entity.Operation{entity.OpSet, entity.OpEnable, entity.OpDisable} {
		results := f.provider.Dispatch(ctx, op, bps, nil, f.rec)
		require.Len(t, results, 2, op.String())
		for _, r := range results {
			assert.Equal(t, entity.OutcomeSkipped, r.Outcome, "%v %s", op, r.BreakpointID)
			assert.Equal(t, entity.SkipCancelled, r.SkipReason, "%v %s", op, r.BreakpointID)
		}
	}
	assert.Equal(t, 1, a.CallCount(entity.OpSet))
	assert.Zero(t, a.CallCount(entity.OpEnable))
	assert.Zero(t, a.CallCount(entity.OpDisable))
	_, held := a.TargetState(bps[1].ID)
	assert.False(t, held)
}

func TestDispatchEnableWithoutInstanceSets(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	bps := f.register(t, 1, "app")
	bps[0].Desired = entity.DesiredDisabled

	f.provider.Dispatch(ctx, entity.OpEnable, bps, nil, f.rec)
	assert.Equal(t, 1, a.CallCount(entity.OpSet))
	assert.True(t, a.Calls()[0].Request.Enabled)
	assert.Equal(t, entity.StateActiveEnabled, f.state(t, bps[0].ID, "A"))
}

func TestDispatchSkipsDisconnected(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	f.sim(t, "A", "app")
	b := f.sim(t, "B", "app")
	b.Disconnect()
	bps := f.register(t, 3, "app")

	results := f.provider.Dispatch(ctx, entity.OpDisable, bps, nil, f.rec)
	require.Len(t, results, 6)
	for _, r := range results {
		if r.BackendID == "B" {
			assert.Equal(t, entity.OutcomeSkipped, r.Outcome)
			assert.Equal(t, entity.SkipDisconnected, r.SkipReason)
			continue
		}
		assert.Equal(t, entity.OutcomeSucceeded, r.Outcome)
		assert.Equal(t, entity.StateActiveDisabled, r.State)
	}

	results = f.provider.Dispatch(ctx, entity.OpDisable, bps[:1], []entity.BackendID{"gone"}, f.rec)
	require.Len(t, results, 1)
	assert.Equal(t, entity.SkipDisconnected, results[0].SkipReason)
}

func TestLaneSerializesRequests(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	bps := f.register(t, 1, "app")
	f.provider.Dispatch(ctx, entity.OpSet, bps, nil, f.rec)

	a.Pause()
	var wg sync.WaitGroup
	results := make([][]entity.PairResult, 3)
	dispatch := func(i int, op entity.Operation) {
		defer wg.Done()
		results[i] = f.provider.Dispatch(ctx, op, bps, nil, f.rec)
	}

	wg.Add(1)
	go dispatch(0, entity.OpDisable)
	require.Eventually(t, func() bool { return a.Held() == 1 }, time.Second, time.Millisecond)

	// Both queue behind the in-flight disable; the later one supersedes the earlier.
	wg.Add(1)
	go dispatch(1, entity.OpEnable)
	require.Eventually(t, func() bool { return f.laneLen(bps[0].ID, "A") == 1 }, time.Second, time.Millisecond)
	wg.Add(1)
	go dispatch(2, entity.OpDisable)
	require.Eventually(t, func() bool {
		return f.laneLen(bps[0].ID, "A") == 1 && f.queuedOp(bps[0].ID, "A") == entity.OpDisable
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1, a.Held(), "one request in flight per pair")
	a.Unpause()
	wg.Wait()

	assert.Equal(t, entity.OutcomeSucceeded, results[0][0].Outcome)
	assert.Equal(t, entity.OutcomeSkipped, results[1][0].Outcome)
	assert.Equal(t, entity.SkipSuperseded, results[1][0].SkipReason)
	assert.Equal(t, entity.OutcomeSucceeded, results[2][0].Outcome)
	assert.Equal(t, entity.StateActiveDisabled, f.state(t, bps[0].ID, "A"))
	assert.Equal(t, 1, a.MaxInFlight(bps[0].ID))
	assert.Less(t, results[0][0].Seq, results[2][0].Seq)
}

func (f *fixture) laneLen(bp entity.BreakpointID, b entity.BackendID) int {
	p := f.provider.(*provider)
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lanes[pairKey{bp: bp, backend: b}]
	if !ok {
		return 0
	}
	return len(l.queue)
}

func (f *fixture) lanes() int {
	p := f.provider.(*provider)
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lanes)
}

func (f *fixture) queuedOp(bp entity.BreakpointID, b entity.BackendID) entity.Operation {
	p := f.provider.(*provider)
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.lanes[pairKey{bp: bp, backend: b}]
	return l.queue[len(l.queue)-1].op
}

func TestIdleLanesRetired(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	f.sim(t, "A", "app")
	bps := f.register(t, 2, "app")

	require.Len(t, f.provider.Dispatch(ctx, entity.OpSet, bps, nil, f.rec), 2)
	require.Eventually(t, func() bool { return f.lanes() == 0 }, time.Second, time.Millisecond)

	// The fast path takes a sequence number too.
	noop := f.provider.Dispatch(ctx, entity.OpEnable, bps[:1], nil, f.rec)
	require.Len(t, noop, 1)
	require.Equal(t, entity.OutcomeSucceeded, noop[0].Outcome)
	require.Eventually(t, func() bool { return f.lanes() == 0 }, time.Second, time.Millisecond)

	disable := f.provider.Dispatch(ctx, entity.OpDisable, bps[:1], nil, f.rec)
	require.Len(t, disable, 1)
	assert.Equal(t, entity.OutcomeSucceeded, disable[0].Outcome)
	assert.Greater(t, disable[0].Seq, noop[0].Seq, "a new lane continues after the retired one")
	assert.Equal(t, entity.StateActiveDisabled, f.state(t, bps[0].ID, "A"))
	require.Eventually(t, func() bool { return f.lanes() == 0 }, time.Second, time.Millisecond)
}

func TestRemoveCancelsInFlightEnable(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	bps := f.register(t, 1, "app")
	bps[0].Desired = entity.DesiredDisabled
	f.provider.Dispatch(ctx, entity.OpSet, bps, nil, f.rec)
	require.Equal(t, entity.StateActiveDisabled, f.state(t, bps[0].ID, "A"))

	a.Pause()
	var enable []entity.PairResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		enable = f.provider.Dispatch(ctx, entity.OpEnable, bps, nil, f.rec)
	}()
	require.Eventually(t, func() bool { return a.Held() == 1 }, time.Second, time.Millisecond)

	removeDone := make(chan []entity.PairResult)
	go func() { removeDone <- f.provider.Dispatch(ctx, entity.OpRemove, bps, nil, f.rec) }()
	<-done
	require.Len(t, enable, 1)
	assert.Equal(t, entity.OutcomeSkipped, enable[0].Outcome)
	assert.Equal(t, entity.SkipCancelled, enable[0].SkipReason)

	// The remove is held behind the abandoned enable on the target; its ack is the only one applied.
	require.Eventually(t, func() bool { return a.Held() == 2 }, time.Second, time.Millisecond)
	a.Unpause()
	remove := <-removeDone
	require.Len(t, remove, 1)
	assert.Equal(t, entity.OutcomeSucceeded, remove[0].Outcome)
	assert.Equal(t, entity.StateRemoved, f.state(t, bps[0].ID, "A"))
}

func TestTimeoutDegradesAndBacksOff(t *testing.T) {
	f := newFixture(t, 30)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	b := f.sim(t, "B", "app")
	bps := f.register(t, 1, "app")
	f.provider.Dispatch(ctx, entity.OpSet, bps, nil, f.rec)

	a.Pause()
	results := f.provider.Dispatch(ctx, entity.OpDisable, bps, nil, f.rec)
	require.Len(t, results, 2)
	assert.Equal(t, entity.OutcomeFailed, results[0].Outcome)
	assert.True(t, errors.HasReason(results[0].Err, errors.ReasonTimeout))
	assert.Equal(t, entity.OutcomeSucceeded, results[1].Outcome, "other backends are not blocked")
	assert.True(t, f.provider.Degraded("A"))
	assert.False(t, f.provider.Degraded("B"))
	assert.Equal(t, entity.StateInvalid, f.state(t, bps[0].ID, "A"))
	a.Unpause()

	done := make(chan []entity.PairResult)
	go func() { done <- f.provider.Dispatch(ctx, entity.OpSet, bps, []entity.BackendID{"A"}, f.rec) }()
	require.Eventually(t, func() bool { return f.clock.Waiters() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, a.CallCount(entity.OpSet), "retry waits for the backoff")
	f.clock.Advance(100 * time.Millisecond)

	results = <-done
	require.Len(t, results, 1)
	assert.Equal(t, entity.OutcomeSucceeded, results[0].Outcome)
	assert.False(t, f.provider.Degraded("A"), "an ack clears degradation")
	assert.Equal(t, 1, b.CallCount(entity.OpSet))
}

func TestBackoffBounds(t *testing.T) {
	f := newFixture(t, 1000)
	p := f.provider.(*provider)
	tests := []struct {
		timeouts int64
		want     time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{50, 400 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.backoff(tt.timeouts), "timeouts=%d", tt.timeouts)
	}
}

func TestReconnectedEvent(t *testing.T) {
	f := newFixture(t, 1000)
	events, cancel := f.provider.Subscribe()
	defer cancel()
	a := f.sim(t, "A", "app")

	a.Disconnect()
	a.Reconnect()

	var got []entity.EventType
	for len(got) < 4 {
		select {
		case ev := <-events:
			got = append(got, ev.Type)
		case <-time.After(time.Second):
			t.Fatalf("events so far: %v", got)
		}
	}
	assert.Equal(t, []entity.EventType{
		entity.EventAttached,
		entity.EventConnectionChanged,
		entity.EventConnectionChanged,
		entity.EventReconnected,
	}, got)
}

func TestDispatchWithMockHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, 1000)
	ctx := context.Background()
	bps := f.register(t, 1, "app")
	_, err := f.registry.RecordInstanceTransition(ctx, bps[0].ID, "M", entity.StatePendingSet, 7)
	require.NoError(t, err)
	_, err = f.registry.RecordInstanceTransition(ctx, bps[0].ID, "M", entity.StateActiveEnabled, 7)
	require.NoError(t, err)

	events := make(chan entity.Event)
	h := backendmock.NewMockHandle(ctrl)
	h.EXPECT().ID().Return(entity.BackendID("M")).AnyTimes()
	h.EXPECT().ConnectionState().Return(entity.ConnectionConnected).AnyTimes()
	h.EXPECT().Subscribe().Return((<-chan entity.Event)(events), func() {})
	h.EXPECT().Covers(gomock.Any()).Return(false).AnyTimes()
	h.EXPECT().RequestDisable(gomock.Any(), entity.Request{BreakpointID: bps[0].ID, Seq: 8}).
		Return(backend.Resolved(entity.Ack{BreakpointID: bps[0].ID, BackendID: "M", Seq: 8, State: entity.StateActiveDisabled}))
	h.EXPECT().Close().DoAndReturn(func() error {
		close(events)
		return nil
	})

	require.NoError(t, f.provider.Attach(ctx, h))
	results := f.provider.Dispatch(ctx, entity.OpDisable, bps, nil, f.rec)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(8), results[0].Seq, "sequence continues from the registry")
	assert.Equal(t, entity.StateActiveDisabled, f.state(t, bps[0].ID, "M"))
	require.NoError(t, f.provider.Detach(ctx, "M"))
}

func TestClosedProvider(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	a := f.sim(t, "A", "app")
	bps := f.register(t, 1, "app")

	require.NoError(t, f.provider.Close())
	assert.ErrorIs(t, f.provider.Attach(ctx, a), errors.ErrClosed)
	results := f.provider.Dispatch(ctx, entity.OpSet, bps, []entity.BackendID{"A"}, f.rec)
	require.Len(t, results, 1)
	assert.Equal(t, entity.OutcomeSkipped, results[0].Outcome)
	assert.Zero(t, f.rec.issuedCount())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
