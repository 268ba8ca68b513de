// Package entity contains the domain logic for the bpsync service.
package entity

import (
	"fmt"
	"strings"
)

// BreakpointID is the stable identifier of a logical breakpoint.
type BreakpointID string

// String implements fmt.Stringer.
func (id BreakpointID) String() string {
	return string(id)
}

// BackendID identifies one attached debugger backend.
type BackendID string

// String implements fmt.Stringer.
func (id BackendID) String() string {
	return string(id)
}

// Kind is the kind of access a breakpoint traps.
type Kind int

const (
	// KindExecution halts when execution reaches the address.
	KindExecution Kind = iota
	// KindMemoryRead halts when the address is read.
	KindMemoryRead
	// KindMemoryWrite halts when the address is written.
	KindMemoryWrite
	// KindMemoryAccess halts on any read or write of the address.
	KindMemoryAccess
)

var _kindNames = map[Kind]string{
	KindExecution:    "execution",
	KindMemoryRead:   "memory-read",
	KindMemoryWrite:  "memory-write",
	KindMemoryAccess: "memory-access",
}

// String returns a string representation of the kind.
func (k Kind) String() string {
	if s, ok := _kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := parseName(_kindNames, string(text), "kind")
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// DesiredState is what the user wants a breakpoint to be, independent of what any backend reflects.
type DesiredState int

const (
	// DesiredEnabled requests the breakpoint to trap.
	DesiredEnabled DesiredState = iota
	// DesiredDisabled requests the breakpoint to stay set but not trap.
	DesiredDisabled
)

var _desiredNames = map[DesiredState]string{
	DesiredEnabled:  "ENABLED",
	DesiredDisabled: "DISABLED",
}

// String returns a string representation of the desired state.
func (d DesiredState) String() string {
	if s, ok := _desiredNames[d]; ok {
		return s
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler.
func (d DesiredState) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DesiredState) UnmarshalText(text []byte) error {
	v, err := parseName(_desiredNames, string(text), "desired state")
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Address specifies where a breakpoint applies: a module plus relative offset, or an absolute virtual address once resolved.
type Address struct {
	Module   string `json:"module,omitempty" yaml:"module"`
	Offset   uint64 `json:"offset,omitempty" yaml:"offset"`
	Absolute uint64 `json:"absolute,omitempty" yaml:"absolute"`
}

// Resolved reports whether the address is an absolute virtual address.
func (a Address) Resolved() bool {
	return a.Module == ""
}

// String implements fmt.Stringer.
func (a Address) String() string {
	if a.Resolved() {
		return fmt.Sprintf("0x%x", a.Absolute)
	}
	return fmt.Sprintf("%s+0x%x", a.Module, a.Offset)
}

// Module is one loaded module in a target process.
type Module struct {
	Name string `json:"name" yaml:"name"`
	Base uint64 `json:"base" yaml:"base"`
	Size uint64 `json:"size" yaml:"size"`
}

// ModuleMap is the set of modules a backend's process has loaded.
type ModuleMap []Module

// Contains reports whether the address falls inside one of the modules.
// A module with zero size accepts any offset.
func (m ModuleMap) Contains(addr Address) bool {
	for _, mod := range m {
		if addr.Resolved() {
			if addr.Absolute >= mod.Base && addr.Absolute-mod.Base < mod.Size {
				return true
			}
			continue
		}
		if strings.EqualFold(mod.Name, addr.Module) && (mod.Size == 0 || addr.Offset < mod.Size) {
			return true
		}
	}
	return false
}

// Breakpoint is the logical, address-based breakpoint owned by the registry.
type Breakpoint struct {
	ID        BreakpointID `json:"id" zap:"id"`
	Address   Address      `json:"address" zap:"address"`
	Kind      Kind         `json:"kind" zap:"kind"`
	Condition string       `json:"condition,omitempty" zap:"condition"`
	Desired   DesiredState `json:"desired" zap:"desired"`
	// RemoveRequested marks a breakpoint whose removal is pending on at least one backend.
	RemoveRequested bool `json:"removeRequested,omitempty" zap:"removeRequested"`
}

// Spec describes a breakpoint to be created.
type Spec struct {
	Address   Address `json:"address"`
	Kind      Kind    `json:"kind"`
	Condition string  `json:"condition,omitempty"`
	Disabled  bool    `json:"disabled,omitempty"`
}

// NewBreakpoint builds a Breakpoint from a Spec.
func NewBreakpoint(id BreakpointID, spec Spec) *Breakpoint {
	desired := DesiredEnabled
	if spec.Disabled {
		desired = DesiredDisabled
	}
	return &Breakpoint{
		ID:        id,
		Address:   spec.Address,
		Kind:      spec.Kind,
		Condition: spec.Condition,
		Desired:   desired,
	}
}

func parseName[T comparable](names map[T]string, text string, what string) (T, error) {
	for v, name := range names {
		if strings.EqualFold(name, text) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", what, text)
}
