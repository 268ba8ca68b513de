// Package model contains the repository layer models of the bpsync service.
package model

// Breakpoint is the repository layer model for a logical breakpoint.
type Breakpoint struct {
	ID              string
	Module          string
	Offset          uint64
	Absolute        uint64
	Kind            int
	Condition       string
	Disabled        bool
	RemoveRequested bool
	// Instances is keyed by backend id.
	Instances map[string]*Instance
}

// Instance is the repository layer model for a breakpoint's projection onto one backend.
type Instance struct {
	Backend string
	State   int
	Seq     uint64
	Reason  string
}
