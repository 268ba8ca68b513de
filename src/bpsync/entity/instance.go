package entity

// InstanceState is the backend-confirmed state of a breakpoint on one backend.
type InstanceState int

const (
	// StateRemoved is the absence of an instance. Recording it deletes the instance.
	StateRemoved InstanceState = iota
	// StatePendingSet means a set request is in flight.
	StatePendingSet
	// StateActiveEnabled means the backend holds the breakpoint and traps on it.
	StateActiveEnabled
	// StateActiveDisabled means the backend holds the breakpoint without trapping.
	StateActiveDisabled
	// StatePendingRemove means a remove request is in flight.
	StatePendingRemove
	// StateInvalid means the backend rejected the address, the process exited, or a request timed out.
	StateInvalid
	// StateHit means execution is halted at the breakpoint.
	StateHit
)

var _stateNames = map[InstanceState]string{
	StateRemoved:        "REMOVED",
	StatePendingSet:     "PENDING_SET",
	StateActiveEnabled:  "ACTIVE_ENABLED",
	StateActiveDisabled: "ACTIVE_DISABLED",
	StatePendingRemove:  "PENDING_REMOVE",
	StateInvalid:        "INVALID",
	StateHit:            "HIT",
}

// String returns a string representation of the state.
func (s InstanceState) String() string {
	if name, ok := _stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler.
func (s InstanceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *InstanceState) UnmarshalText(text []byte) error {
	v, err := parseName(_stateNames, string(text), "instance state")
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Active reports whether the backend currently holds the breakpoint.
func (s InstanceState) Active() bool {
	return s == StateActiveEnabled || s == StateActiveDisabled || s == StateHit
}

// Pending reports whether a set or remove is in flight.
func (s InstanceState) Pending() bool {
	return s == StatePendingSet || s == StatePendingRemove
}

// Matches reports whether the state already reflects the desired state.
func (s InstanceState) Matches(d DesiredState) bool {
	switch d {
	case DesiredEnabled:
		return s == StateActiveEnabled || s == StateHit
	case DesiredDisabled:
		return s == StateActiveDisabled
	}
	return false
}

var _transitions = map[InstanceState][]InstanceState{
	StateRemoved:        {StatePendingSet},
	StatePendingSet:     {StateActiveEnabled, StateActiveDisabled},
	StateActiveEnabled:  {StateActiveDisabled, StateHit, StatePendingRemove},
	StateActiveDisabled: {StateActiveEnabled, StatePendingRemove},
	StateHit:            {StateActiveEnabled, StateActiveDisabled, StatePendingRemove},
	StatePendingRemove:  {StateRemoved},
	StateInvalid:        {StatePendingSet, StateRemoved},
}

// CanTransition reports whether moving an instance from one state to another is legal.
// Staying in the same state is always legal, and every present state may become INVALID.
func CanTransition(from, to InstanceState) bool {
	if from == to {
		return true
	}
	if to == StateInvalid {
		return from != StateRemoved
	}
	for _, next := range _transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ConnectionState is the state of one backend connection.
type ConnectionState int

const (
	// ConnectionDisconnected means the backend is unreachable.
	ConnectionDisconnected ConnectionState = iota
	// ConnectionConnected means requests can be issued.
	ConnectionConnected
	// ConnectionError means the connection is up but unusable.
	ConnectionError
)

var _connectionNames = map[ConnectionState]string{
	ConnectionDisconnected: "DISCONNECTED",
	ConnectionConnected:    "CONNECTED",
	ConnectionError:        "ERROR",
}

// String returns a string representation of the connection state.
func (c ConnectionState) String() string {
	if name, ok := _connectionNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler.
func (c ConnectionState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Instance is the projection of a breakpoint onto one backend.
type Instance struct {
	BreakpointID BreakpointID  `json:"breakpointId" zap:"breakpointId"`
	BackendID    BackendID     `json:"backendId" zap:"backendId"`
	State        InstanceState `json:"state" zap:"state"`
	// Seq is the sequence number of the last request applied to this instance.
	Seq    uint64 `json:"seq" zap:"seq"`
	Reason string `json:"reason,omitempty" zap:"reason"`
}
