// Package actions holds the command objects a breakpoint table invokes on selected rows.
package actions

import (
	"context"
	"fmt"

	"github.com/uber/bpsync/src/bpsync/controller/coordinator"
	"github.com/uber/bpsync/src/bpsync/entity"
)

// Action is one command bound to a fixed selection of breakpoints.
// Actions hold no state across calls, and the selection is resolved once, when the action is created.
type Action interface {
	// Name is the label shown for the action, singular or plural by selection size.
	Name() string
	// Breakpoints returns the resolved selection.
	Breakpoints() []entity.BreakpointID
	// Perform applies the operation and returns the pending batch result.
	Perform(ctx context.Context) (*entity.BatchResult, error)
}

// RowResolver maps presentation rows to breakpoint ids.
type RowResolver interface {
	Resolve(rows []int) ([]entity.BreakpointID, error)
}

// RowResolverFunc adapts a function to a RowResolver.
type RowResolverFunc func(rows []int) ([]entity.BreakpointID, error)

// Resolve implements RowResolver.
func (f RowResolverFunc) Resolve(rows []int) ([]entity.BreakpointID, error) {
	return f(rows)
}

// Table resolves rows against an ordered list of breakpoint ids, as currently displayed.
type Table []entity.BreakpointID

// Resolve implements RowResolver.
func (t Table) Resolve(rows []int) ([]entity.BreakpointID, error) {
	ids := make([]entity.BreakpointID, len(rows))
	for i, row := range rows {
		if row < 0 || row >= len(t) {
			return nil, fmt.Errorf("row %d is out of range [0, %d)", row, len(t))
		}
		ids[i] = t[row]
	}
	return ids, nil
}

type action struct {
	op       entity.Operation
	verb     string
	coord    coordinator.Coordinator
	selected []entity.BreakpointID
}

// NewEnableAction creates an action that enables the breakpoints on the given rows.
func NewEnableAction(coord coordinator.Coordinator, resolver RowResolver, rows []int) (Action, error) {
	return newAction(entity.OpEnable, "Enable", coord, resolver, rows)
}

// NewDisableAction creates an action that disables the breakpoints on the given rows.
func NewDisableAction(coord coordinator.Coordinator, resolver RowResolver, rows []int) (Action, error) {
	return newAction(entity.OpDisable, "Disable", coord, resolver, rows)
}

// NewRemoveAction creates an action that removes the breakpoints on the given rows.
func NewRemoveAction(coord coordinator.Coordinator, resolver RowResolver, rows []int) (Action, error) {
	return newAction(entity.OpRemove, "Remove", coord, resolver, rows)
}

func newAction(op entity.Operation, verb string, coord coordinator.Coordinator, resolver RowResolver, rows []int) (Action, error) {
	if coord == nil {
		return nil, fmt.Errorf("%s action: coordinator can not be nil", verb)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%s action: row resolver can not be nil", verb)
	}
	ids, err := resolver.Resolve(append([]int(nil), rows...))
	if err != nil {
		return nil, fmt.Errorf("%s action: resolving rows: %w", verb, err)
	}
	return &action{op: op, verb: verb, coord: coord, selected: ids}, nil
}

func (a *action) Name() string {
	if len(a.selected) == 1 {
		return a.verb + " Breakpoint"
	}
	return a.verb + " Breakpoints"
}

func (a *action) Breakpoints() []entity.BreakpointID {
	return append([]entity.BreakpointID(nil), a.selected...)
}

func (a *action) Perform(ctx context.Context) (*entity.BatchResult, error) {
	return a.coord.Apply(ctx, a.op, a.selected)
}
