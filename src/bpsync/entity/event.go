package entity

// EventType enumerates unsolicited events reported by a backend or the provider.
type EventType int

const (
	// EventHit means execution halted at a breakpoint.
	EventHit EventType = iota + 1
	// EventResumed means execution continued after a hit.
	EventResumed
	// EventStateChanged means another client changed a breakpoint on the backend.
	EventStateChanged
	// EventProcessExited means the target process exited.
	EventProcessExited
	// EventDetached means the backend detached from its process.
	EventDetached
	// EventConnectionChanged means the backend's connection state changed.
	EventConnectionChanged
	// EventModulesChanged means the target loaded or unloaded modules.
	EventModulesChanged
	// EventAttached is emitted by the provider when a backend is attached.
	EventAttached
	// EventReconnected is emitted by the provider when a backend returns to CONNECTED.
	EventReconnected
)

var _eventNames = map[EventType]string{
	EventHit:               "hit",
	EventResumed:           "resumed",
	EventStateChanged:      "state-changed",
	EventProcessExited:     "process-exited",
	EventDetached:          "detached",
	EventConnectionChanged: "connection-changed",
	EventModulesChanged:    "modules-changed",
	EventAttached:          "attached",
	EventReconnected:       "reconnected",
}

// String returns a string representation of the event type.
func (e EventType) String() string {
	if name, ok := _eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EventType) UnmarshalText(text []byte) error {
	v, err := parseName(_eventNames, string(text), "event type")
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Event is an unsolicited notification about a backend.
// Only the fields relevant to the Type are set.
type Event struct {
	Type         EventType       `json:"type"`
	Backend      BackendID       `json:"backend"`
	BreakpointID BreakpointID    `json:"breakpointId,omitempty"`
	State        InstanceState   `json:"state,omitempty"`
	Connection   ConnectionState `json:"connection,omitempty"`
	Modules      ModuleMap       `json:"modules,omitempty"`
	Reason       string          `json:"reason,omitempty"`
}
