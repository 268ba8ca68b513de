// Package mapper maps between entities and repository models.
package mapper

import (
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/model"
)

// BreakpointToModel maps a Breakpoint entity to its model equivalent. Instances are not carried.
func BreakpointToModel(bp *entity.Breakpoint) *model.Breakpoint {
	return &model.Breakpoint{
		ID:              string(bp.ID),
		Module:          bp.Address.Module,
		Offset:          bp.Address.Offset,
		Absolute:        bp.Address.Absolute,
		Kind:            int(bp.Kind),
		Condition:       bp.Condition,
		Disabled:        bp.Desired == entity.DesiredDisabled,
		RemoveRequested: bp.RemoveRequested,
		Instances:       make(map[string]*model.Instance),
	}
}

// ModelToBreakpoint maps a model Breakpoint to its entity equivalent.
func ModelToBreakpoint(m *model.Breakpoint) *entity.Breakpoint {
	desired := entity.DesiredEnabled
	if m.Disabled {
		desired = entity.DesiredDisabled
	}
	return &entity.Breakpoint{
		ID: entity.BreakpointID(m.ID),
		Address: entity.Address{
			Module:   m.Module,
			Offset:   m.Offset,
			Absolute: m.Absolute,
		},
		Kind:            entity.Kind(m.Kind),
		Condition:       m.Condition,
		Desired:         desired,
		RemoveRequested: m.RemoveRequested,
	}
}

// InstanceToModel maps an Instance entity to its model equivalent.
func InstanceToModel(inst entity.Instance) *model.Instance {
	return &model.Instance{
		Backend: string(inst.BackendID),
		State:   int(inst.State),
		Seq:     inst.Seq,
		Reason:  inst.Reason,
	}
}

// ModelToInstance maps a model Instance owned by the given breakpoint to its entity equivalent.
func ModelToInstance(id string, m *model.Instance) entity.Instance {
	return entity.Instance{
		BreakpointID: entity.BreakpointID(id),
		BackendID:    entity.BackendID(m.Backend),
		State:        entity.InstanceState(m.State),
		Seq:          m.Seq,
		Reason:       m.Reason,
	}
}
