package entity

import (
	"github.com/gofrs/uuid"
	"go.uber.org/multierr"
)

// Operation is a bulk breakpoint operation.
type Operation int

const (
	// OpObserve marks changes reported by a backend rather than requested by a caller.
	OpObserve Operation = iota
	// OpEnable enables breakpoints.
	OpEnable
	// OpDisable disables breakpoints.
	OpDisable
	// OpRemove removes breakpoints.
	OpRemove
	// OpSet places breakpoints on backends.
	OpSet
)

var _opNames = map[Operation]string{
	OpObserve: "OBSERVE",
	OpEnable:  "ENABLE",
	OpDisable: "DISABLE",
	OpRemove:  "REMOVE",
	OpSet:     "SET",
}

// String returns a string representation of the operation.
func (o Operation) String() string {
	if name, ok := _opNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler.
func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operation) UnmarshalText(text []byte) error {
	v, err := parseName(_opNames, string(text), "operation")
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Request is one request to one backend for one breakpoint.
type Request struct {
	BreakpointID BreakpointID `json:"breakpointId"`
	Seq          uint64       `json:"seq"`
	// The remaining fields are only meaningful for set requests.
	Address   Address `json:"address"`
	Kind      Kind    `json:"kind"`
	Condition string  `json:"condition,omitempty"`
	Enabled   bool    `json:"enabled"`
}

// SetRequest builds a set request for the breakpoint, honoring its desired state.
func SetRequest(bp Breakpoint, seq uint64) Request {
	return Request{
		BreakpointID: bp.ID,
		Seq:          seq,
		Address:      bp.Address,
		Kind:         bp.Kind,
		Condition:    bp.Condition,
		Enabled:      bp.Desired == DesiredEnabled,
	}
}

// Ack is a backend's acknowledgment of a request.
type Ack struct {
	BreakpointID BreakpointID  `json:"breakpointId"`
	BackendID    BackendID     `json:"backendId"`
	Seq          uint64        `json:"seq"`
	State        InstanceState `json:"state"`
}

// Outcome classifies the result for one (breakpoint, backend) pair.
type Outcome int

const (
	// OutcomeSucceeded means the backend reflects the request.
	OutcomeSucceeded Outcome = iota
	// OutcomeSkipped means no request reached the backend. Not a failure.
	OutcomeSkipped
	// OutcomeFailed means the backend or transport reported an error.
	OutcomeFailed
)

var _outcomeNames = map[Outcome]string{
	OutcomeSucceeded: "SUCCEEDED",
	OutcomeSkipped:   "SKIPPED",
	OutcomeFailed:    "FAILED",
}

// String returns a string representation of the outcome.
func (o Outcome) String() string {
	if name, ok := _outcomeNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// SkipReason explains a skipped pair.
type SkipReason string

const (
	// SkipDisconnected means the backend was not CONNECTED.
	SkipDisconnected SkipReason = "SKIPPED_DISCONNECTED"
	// SkipSuperseded means a newer request for the same pair replaced this one before it was sent.
	SkipSuperseded SkipReason = "SUPERSEDED"
	// SkipCancelled means the request was cancelled by a removal or shutdown.
	SkipCancelled SkipReason = "CANCELLED"
)

// PairResult is the result of one operation for one (breakpoint, backend) pair.
type PairResult struct {
	BreakpointID BreakpointID  `json:"breakpointId"`
	BackendID    BackendID     `json:"backendId"`
	Op           Operation     `json:"op"`
	Seq          uint64        `json:"seq"`
	Outcome      Outcome       `json:"outcome"`
	SkipReason   SkipReason    `json:"skipReason,omitempty"`
	State        InstanceState `json:"state"`
	Err          error         `json:"-"`
	Message      string        `json:"message,omitempty"`
}

// Trigger identifies what started a batch.
type Trigger string

const (
	// TriggerUser is a batch requested through the coordinator.
	TriggerUser Trigger = "user"
	// TriggerReconcile is a batch re-applying desired state after a backend (re)connected.
	TriggerReconcile Trigger = "reconcile"
	// TriggerBackend is a change reported by a backend without a local request.
	TriggerBackend Trigger = "backend"
)

// BreakpointOutcome enumerates per breakpoint which backends succeeded, were skipped, or failed.
type BreakpointOutcome struct {
	Succeeded []BackendID `json:"succeeded"`
	Skipped   []BackendID `json:"skipped"`
	Failed    []BackendID `json:"failed"`
}

// BatchResult is the consolidated result of one batch.
type BatchResult struct {
	ID          uuid.UUID                           `json:"id"`
	Op          Operation                           `json:"op"`
	Trigger     Trigger                             `json:"trigger"`
	Breakpoints []BreakpointID                      `json:"breakpoints"`
	Outcomes    map[BreakpointID]*BreakpointOutcome `json:"outcomes"`
	Pairs       []PairResult                        `json:"pairs"`
}

// NewBatchResult creates an empty result for the given breakpoints.
func NewBatchResult(id uuid.UUID, op Operation, trigger Trigger, ids []BreakpointID) *BatchResult {
	r := &BatchResult{
		ID:          id,
		Op:          op,
		Trigger:     trigger,
		Breakpoints: append([]BreakpointID(nil), ids...),
		Outcomes:    make(map[BreakpointID]*BreakpointOutcome, len(ids)),
	}
	for _, bp := range ids {
		r.Outcomes[bp] = &BreakpointOutcome{}
	}
	return r
}

// Add records one pair result.
func (r *BatchResult) Add(pr PairResult) {
	if pr.Err != nil && pr.Message == "" {
		pr.Message = pr.Err.Error()
	}
	r.Pairs = append(r.Pairs, pr)

	o, ok := r.Outcomes[pr.BreakpointID]
	if !ok {
		o = &BreakpointOutcome{}
		r.Outcomes[pr.BreakpointID] = o
		r.Breakpoints = append(r.Breakpoints, pr.BreakpointID)
	}
	switch pr.Outcome {
	case OutcomeSucceeded:
		o.Succeeded = append(o.Succeeded, pr.BackendID)
	case OutcomeSkipped:
		o.Skipped = append(o.Skipped, pr.BackendID)
	case OutcomeFailed:
		o.Failed = append(o.Failed, pr.BackendID)
	}
}

// Pair returns the result for one pair, if present.
func (r *BatchResult) Pair(bp BreakpointID, backend BackendID) (PairResult, bool) {
	for _, pr := range r.Pairs {
		if pr.BreakpointID == bp && pr.BackendID == backend {
			return pr, true
		}
	}
	return PairResult{}, false
}

// HasFailures reports whether any pair failed.
func (r *BatchResult) HasFailures() bool {
	for _, pr := range r.Pairs {
		if pr.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Err combines the per-pair warnings. A non-nil value never means the batch itself failed.
func (r *BatchResult) Err() error {
	var err error
	for _, pr := range r.Pairs {
		if pr.Outcome == OutcomeFailed && pr.Err != nil {
			err = multierr.Append(err, pr.Err)
		}
	}
	return err
}
