// Package registry stores logical breakpoints and their per-backend instances.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/mapper"
	"github.com/uber/bpsync/src/bpsync/model"
	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Reader is the read side of the registry.
type Reader interface {
	Get(ctx context.Context, id entity.BreakpointID) (*entity.Breakpoint, error)
	List(ctx context.Context) ([]*entity.Breakpoint, error)
	Missing(ctx context.Context, ids []entity.BreakpointID) []entity.BreakpointID
	InstancesOf(ctx context.Context, id entity.BreakpointID) ([]entity.Instance, error)
	InstancesOn(ctx context.Context, backend entity.BackendID) []entity.Instance
	Instance(ctx context.Context, id entity.BreakpointID, backend entity.BackendID) (_ entity.Instance, ok bool)
}

// Repository is the single owner of breakpoints and instances.
type Repository interface {
	Reader

	Register(ctx context.Context, bp *entity.Breakpoint) error
	SetDesiredState(ctx context.Context, id entity.BreakpointID, desired entity.DesiredState) error
	// ApplyBatch validates ids and records the desired state op implies for all of them as one step.
	// Nothing changes when an id is unknown, or when op is not a removal and an id is already being removed.
	// It returns the breakpoints left to dispatch; removed breakpoints without instances are deleted and omitted.
	ApplyBatch(ctx context.Context, op entity.Operation, ids []entity.BreakpointID) ([]entity.Breakpoint, error)
	// MarkRemoveRequested flags the breakpoint for removal. It is deleted at once when it has no instances.
	MarkRemoveRequested(ctx context.Context, id entity.BreakpointID) (deleted bool, err error)
	// RecordInstanceTransition moves an instance to a new state. A seq of zero skips the staleness check.
	RecordInstanceTransition(ctx context.Context, id entity.BreakpointID, backend entity.BackendID, to entity.InstanceState, seq uint64) (entity.Instance, error)
	ForceInvalid(ctx context.Context, id entity.BreakpointID, backend entity.BackendID, reason string) (entity.Instance, error)
	// Restore puts back an instance captured before a pending transition, or deletes it if it did not exist.
	Restore(ctx context.Context, prior entity.Instance, existed bool) error
	DropInstance(ctx context.Context, id entity.BreakpointID, backend entity.BackendID) error
	DropBackend(ctx context.Context, backend entity.BackendID) ([]entity.Instance, error)
}

// Params are the inputs for New.
type Params struct {
	fx.In

	Stats tally.Scope
}

type repository struct {
	mu       sync.Mutex
	memstore map[string]*model.Breakpoint
	stats    tally.Scope
}

// New returns an in-memory breakpoint registry.
func New(p Params) Repository {
	return &repository{
		memstore: make(map[string]*model.Breakpoint),
		stats:    p.Stats.SubScope("registry"),
	}
}

// Register adds a new breakpoint.
func (r *repository) Register(ctx context.Context, bp *entity.Breakpoint) error {
	if bp == nil {
		return errors.New("can't register nil breakpoint")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memstore[string(bp.ID)]; ok {
		return errors.New("breakpoint " + string(bp.ID) + " already registered")
	}
	r.memstore[string(bp.ID)] = mapper.BreakpointToModel(bp)
	r.updateGauges()
	return nil
}

// Get returns the breakpoint with the given id.
func (r *repository) Get(ctx context.Context, id entity.BreakpointID) (*entity.Breakpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return nil, &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{id}}
	}
	return mapper.ModelToBreakpoint(m), nil
}

// List returns all breakpoints ordered by id.
func (r *repository) List(ctx context.Context) ([]*entity.Breakpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := make([]*entity.Breakpoint, 0, len(r.memstore))
	for _, m := range r.memstore {
		found = append(found, mapper.ModelToBreakpoint(m))
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

// Missing returns the ids the registry does not hold, in input order.
func (r *repository) Missing(ctx context.Context, ids []entity.BreakpointID) []entity.BreakpointID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var missing []entity.BreakpointID
	for _, id := range ids {
		if _, ok := r.memstore[string(id)]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// InstancesOf returns the instances of one breakpoint ordered by backend.
func (r *repository) InstancesOf(ctx context.Context, id entity.BreakpointID) ([]entity.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return nil, &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{id}}
	}
	found := make([]entity.Instance, 0, len(m.Instances))
	for _, inst := range m.Instances {
		found = append(found, mapper.ModelToInstance(m.ID, inst))
	}
	sort.Slice(found, func(i, j int) bool { return found[i].BackendID < found[j].BackendID })
	return found, nil
}

// InstancesOn returns every instance held by one backend ordered by breakpoint.
func (r *repository) InstancesOn(ctx context.Context, backend entity.BackendID) []entity.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []entity.Instance
	for _, m := range r.memstore {
		if inst, ok := m.Instances[string(backend)]; ok {
			found = append(found, mapper.ModelToInstance(m.ID, inst))
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].BreakpointID < found[j].BreakpointID })
	return found
}

// Instance returns one instance.
func (r *repository) Instance(ctx context.Context, id entity.BreakpointID, backend entity.BackendID) (entity.Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return entity.Instance{}, false
	}
	inst, ok := m.Instances[string(backend)]
	if !ok {
		return entity.Instance{}, false
	}
	return mapper.ModelToInstance(m.ID, inst), true
}

// SetDesiredState updates what the user wants the breakpoint to be.
func (r *repository) SetDesiredState(ctx context.Context, id entity.BreakpointID, desired entity.DesiredState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{id}}
	}
	if m.RemoveRequested {
		return &errors.RemovalPendingError{IDs: []entity.BreakpointID{id}}
	}
	m.Disabled = desired == entity.DesiredDisabled
	return nil
}

// ApplyBatch validates and mutates a whole batch under one lock.
func (r *repository) ApplyBatch(ctx context.Context, op entity.Operation, ids []entity.BreakpointID) ([]entity.Breakpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var missing, removing []entity.BreakpointID
	for _, id := range ids {
		m, ok := r.memstore[string(id)]
		switch {
		case !ok:
			missing = append(missing, id)
		case m.RemoveRequested && op != entity.OpRemove:
			removing = append(removing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &errors.UnknownBreakpointError{IDs: missing}
	}
	if len(removing) > 0 {
		return nil, &errors.RemovalPendingError{IDs: removing}
	}

	bps := make([]entity.Breakpoint, 0, len(ids))
	deleted := false
	for _, id := range ids {
		m, ok := r.memstore[string(id)]
		if !ok {
			// Repeated id, deleted earlier in this batch.
			continue
		}
		switch op {
		case entity.OpEnable:
			m.Disabled = false
		case entity.OpDisable:
			m.Disabled = true
		case entity.OpRemove:
			if r.markRemoveLocked(m) {
				deleted = true
				continue
			}
		}
		bps = append(bps, *mapper.ModelToBreakpoint(m))
	}
	if deleted {
		r.updateGauges()
	}
	return bps, nil
}

// MarkRemoveRequested flags the breakpoint for removal.
func (r *repository) MarkRemoveRequested(ctx context.Context, id entity.BreakpointID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return false, &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{id}}
	}
	if r.markRemoveLocked(m) {
		r.updateGauges()
		return true, nil
	}
	return false, nil
}

// markRemoveLocked flags m and deletes it when it holds no instances, reporting whether it was deleted.
func (r *repository) markRemoveLocked(m *model.Breakpoint) bool {
	m.RemoveRequested = true
	if len(m.Instances) == 0 {
		delete(r.memstore, m.ID)
		return true
	}
	return false
}

// RecordInstanceTransition moves an instance to a new state.
func (r *repository) RecordInstanceTransition(ctx context.Context, id entity.BreakpointID, backend entity.BackendID, to entity.InstanceState, seq uint64) (entity.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return entity.Instance{}, &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{id}}
	}

	inst, ok := m.Instances[string(backend)]
	if !ok {
		inst = &model.Instance{Backend: string(backend), State: int(entity.StateRemoved)}
	}
	current := mapper.ModelToInstance(m.ID, inst)

	if seq != 0 && seq < inst.Seq {
		r.stats.Counter("stale_acks").Inc(1)
		return current, errors.ErrStaleAck
	}
	from := entity.InstanceState(inst.State)
	if !entity.CanTransition(from, to) {
		r.stats.Counter("illegal_transitions").Inc(1)
		return current, &errors.IllegalTransitionError{
			BreakpointID: id,
			Backend:      backend,
			From:         from,
			To:           to,
		}
	}

	if seq > inst.Seq {
		inst.Seq = seq
	}
	inst.State = int(to)
	if to != entity.StateInvalid {
		inst.Reason = ""
	}
	r.stats.Counter("transitions").Inc(1)

	if to == entity.StateRemoved {
		r.deleteInstanceLocked(m, backend)
	} else if !ok {
		m.Instances[string(backend)] = inst
		r.updateGauges()
	}
	return mapper.ModelToInstance(m.ID, inst), nil
}

// ForceInvalid marks an instance INVALID, creating it if needed.
func (r *repository) ForceInvalid(ctx context.Context, id entity.BreakpointID, backend entity.BackendID, reason string) (entity.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return entity.Instance{}, &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{id}}
	}
	inst, ok := m.Instances[string(backend)]
	if !ok {
		inst = &model.Instance{Backend: string(backend)}
		m.Instances[string(backend)] = inst
		r.updateGauges()
	}
	inst.State = int(entity.StateInvalid)
	inst.Reason = reason
	r.stats.Counter("invalidated").Inc(1)
	return mapper.ModelToInstance(m.ID, inst), nil
}

// Restore puts back a previously captured instance.
func (r *repository) Restore(ctx context.Context, prior entity.Instance, existed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(prior.BreakpointID)]
	if !ok {
		return &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{prior.BreakpointID}}
	}
	if !existed {
		r.deleteInstanceLocked(m, prior.BackendID)
		return nil
	}
	inst, ok := m.Instances[string(prior.BackendID)]
	if !ok {
		m.Instances[string(prior.BackendID)] = mapper.InstanceToModel(prior)
		r.updateGauges()
		return nil
	}
	// Keep the highest applied seq so acks older than the restored request stay stale.
	seq := inst.Seq
	*inst = *mapper.InstanceToModel(prior)
	if seq > inst.Seq {
		inst.Seq = seq
	}
	return nil
}

// DropInstance deletes one instance regardless of its state.
func (r *repository) DropInstance(ctx context.Context, id entity.BreakpointID, backend entity.BackendID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return &errors.UnknownBreakpointError{IDs: []entity.BreakpointID{id}}
	}
	r.deleteInstanceLocked(m, backend)
	return nil
}

// DropBackend deletes every instance held by the backend and returns them.
func (r *repository) DropBackend(ctx context.Context, backend entity.BackendID) ([]entity.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []entity.Instance
	for _, m := range r.memstore {
		inst, ok := m.Instances[string(backend)]
		if !ok {
			continue
		}
		dropped = append(dropped, mapper.ModelToInstance(m.ID, inst))
		r.deleteInstanceLocked(m, backend)
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].BreakpointID < dropped[j].BreakpointID })
	return dropped, nil
}

func (r *repository) deleteInstanceLocked(m *model.Breakpoint, backend entity.BackendID) {
	delete(m.Instances, string(backend))
	if m.RemoveRequested && len(m.Instances) == 0 {
		delete(r.memstore, m.ID)
	}
	r.updateGauges()
}

func (r *repository) updateGauges() {
	n := 0
	for _, m := range r.memstore {
		n += len(m.Instances)
	}
	r.stats.Gauge("breakpoints").Update(float64(len(r.memstore)))
	r.stats.Gauge("instances").Update(float64(n))
}
