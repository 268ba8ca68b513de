package mapper

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uber/bpsync/src/bpsync/entity"
	bperrors "github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/model"
	"go.lsp.dev/jsonrpc2"
)

// Error codes of the control API, in the JSON-RPC server error range.
const (
	CodeUnknownBreakpoints jsonrpc2.Code = -32001
	CodeUnavailable        jsonrpc2.Code = -32002
	CodeRemovalPending     jsonrpc2.Code = -32003
)

// RequestToCreateParams maps the parameters from a jsonrpc2.Request into model.CreateParams.
func RequestToCreateParams(req jsonrpc2.Request) (*model.CreateParams, error) {
	params := model.CreateParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToApplyParams maps the parameters from a jsonrpc2.Request into model.ApplyParams.
func RequestToApplyParams(req jsonrpc2.Request) (*model.ApplyParams, error) {
	params := model.ApplyParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	if params.Op == entity.OpObserve {
		return nil, fmt.Errorf("%s: op is required", jsonrpc2.ErrInvalidParams)
	}
	return &params, nil
}

// RequestToStatusParams maps the parameters from a jsonrpc2.Request into model.StatusParams.
// Missing parameters select every breakpoint.
func RequestToStatusParams(req jsonrpc2.Request) (*model.StatusParams, error) {
	params := model.StatusParams{}
	if len(req.Params()) == 0 || string(req.Params()) == "null" {
		return &params, nil
	}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// CreateParamsToSpec maps create parameters to a breakpoint Spec.
func CreateParamsToSpec(p *model.CreateParams) entity.Spec {
	return entity.Spec{
		Address:   p.Address,
		Kind:      p.Kind,
		Condition: p.Condition,
		Disabled:  p.Disabled,
	}
}

// ToRPCError maps coordinator errors to JSON-RPC errors carrying a control API code.
func ToRPCError(err error) error {
	if err == nil {
		return nil
	}
	if ids, ok := bperrors.UnknownBreakpoints(err); ok {
		return jsonrpc2.NewError(CodeUnknownBreakpoints, (&bperrors.UnknownBreakpointError{IDs: ids}).Error())
	}
	if ids, ok := bperrors.RemovalPending(err); ok {
		return jsonrpc2.NewError(CodeRemovalPending, (&bperrors.RemovalPendingError{IDs: ids}).Error())
	}
	if errors.Is(err, bperrors.ErrClosed) {
		return jsonrpc2.NewError(CodeUnavailable, err.Error())
	}
	return err
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%s: %w", jsonrpc2.ErrParse, err)
}
