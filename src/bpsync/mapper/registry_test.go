package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/model"
	"go.uber.org/goleak"
)

func TestBreakpointToModel(t *testing.T) {
	bp := &entity.Breakpoint{
		ID:              "bp-1",
		Address:         entity.Address{Module: "libfoo.so", Offset: 0x20},
		Kind:            entity.KindMemoryWrite,
		Condition:       "x > 1",
		Desired:         entity.DesiredDisabled,
		RemoveRequested: true,
	}
	m := BreakpointToModel(bp)
	assert.Equal(t, "bp-1", m.ID)
	assert.Equal(t, "libfoo.so", m.Module)
	assert.Equal(t, uint64(0x20), m.Offset)
	assert.Equal(t, int(entity.KindMemoryWrite), m.Kind)
	assert.True(t, m.Disabled)
	assert.True(t, m.RemoveRequested)
	assert.NotNil(t, m.Instances)

	assert.Equal(t, bp, ModelToBreakpoint(m))
}

func TestModelToBreakpoint(t *testing.T) {
	m := &model.Breakpoint{ID: "abs", Absolute: 0x401000}
	bp := ModelToBreakpoint(m)
	assert.Equal(t, entity.DesiredEnabled, bp.Desired)
	assert.True(t, bp.Address.Resolved())
	assert.Equal(t, entity.KindExecution, bp.Kind)
}

func TestInstanceMapping(t *testing.T) {
	inst := entity.Instance{
		BreakpointID: "bp",
		BackendID:    "A",
		State:        entity.StateInvalid,
		Seq:          3,
		Reason:       "timeout",
	}
	m := InstanceToModel(inst)
	assert.Equal(t, "A", m.Backend)
	assert.Equal(t, int(entity.StateInvalid), m.State)
	assert.Equal(t, inst, ModelToInstance("bp", m))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
