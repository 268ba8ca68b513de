package model

import "github.com/uber/bpsync/src/bpsync/entity"

// CreateParams are the parameters of breakpoints/create.
type CreateParams struct {
	Address   entity.Address `json:"address"`
	Kind      entity.Kind    `json:"kind"`
	Condition string         `json:"condition,omitempty"`
	Disabled  bool           `json:"disabled,omitempty"`
	// Wait holds the reply until the placement batch completes.
	Wait bool `json:"wait,omitempty"`
}

// CreateResult is the reply to breakpoints/create.
type CreateResult struct {
	Breakpoint *entity.Breakpoint  `json:"breakpoint"`
	Result     *entity.BatchResult `json:"result"`
}

// ApplyParams are the parameters of breakpoints/apply.
type ApplyParams struct {
	Op   entity.Operation      `json:"op"`
	IDs  []entity.BreakpointID `json:"ids"`
	Wait bool                  `json:"wait,omitempty"`
}

// StatusParams are the parameters of breakpoints/status. No ids selects every breakpoint.
type StatusParams struct {
	IDs []entity.BreakpointID `json:"ids,omitempty"`
}

// StatusResult is the reply to breakpoints/status.
type StatusResult struct {
	Instances map[entity.BreakpointID][]entity.Instance `json:"instances"`
}

// BackendStatus describes one attached backend.
type BackendStatus struct {
	ID         entity.BackendID       `json:"id"`
	Connection entity.ConnectionState `json:"connection"`
	Degraded   bool                   `json:"degraded"`
}

// ListBackendsResult is the reply to backends/list.
type ListBackendsResult struct {
	Backends []BackendStatus `json:"backends"`
}
