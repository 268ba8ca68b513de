package mapper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/factory"
	bperrors "github.com/uber/bpsync/src/bpsync/internal/errors"
	"github.com/uber/bpsync/src/bpsync/model"
	"go.lsp.dev/jsonrpc2"
)

func TestRequestToCreateParams(t *testing.T) {
	req := factory.JSONRPCRequest("breakpoints/create", map[string]interface{}{
		"address":   map[string]interface{}{"module": "libc.so", "offset": 32},
		"kind":      "memory-write",
		"condition": "rax == 0",
		"wait":      true,
	})
	params, err := RequestToCreateParams(req)
	require.NoError(t, err)
	assert.Equal(t, &model.CreateParams{
		Address:   entity.Address{Module: "libc.so", Offset: 32},
		Kind:      entity.KindMemoryWrite,
		Condition: "rax == 0",
		Wait:      true,
	}, params)

	spec := CreateParamsToSpec(params)
	assert.Equal(t, entity.KindMemoryWrite, spec.Kind)
	assert.False(t, spec.Disabled)

	_, err = RequestToCreateParams(factory.JSONRPCRequest("breakpoints/create", map[string]interface{}{"kind": "hardware"}))
	assert.Error(t, err)
}

func TestRequestToApplyParams(t *testing.T) {
	tests := []struct {
		name    string
		params  interface{}
		want    *model.ApplyParams
		wantErr bool
	}{
		{
			name:   "disable",
			params: map[string]interface{}{"op": "disable", "ids": []string{"a", "b"}},
			want:   &model.ApplyParams{Op: entity.OpDisable, IDs: []entity.BreakpointID{"a", "b"}},
		},
		{
			name:   "remove and wait",
			params: map[string]interface{}{"op": "REMOVE", "ids": []string{"a"}, "wait": true},
			want:   &model.ApplyParams{Op: entity.OpRemove, IDs: []entity.BreakpointID{"a"}, Wait: true},
		},
		{
			name:    "missing op",
			params:  map[string]interface{}{"ids": []string{"a"}},
			wantErr: true,
		},
		{
			name:    "unknown op",
			params:  map[string]interface{}{"op": "toggle"},
			wantErr: true,
		},
		{
			name:    "wrong shape",
			params:  []int{1, 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := RequestToApplyParams(factory.JSONRPCRequest("breakpoints/apply", tt.params))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, params)
		})
	}
}

func TestRequestToStatusParams(t *testing.T) {
	params, err := RequestToStatusParams(factory.JSONRPCRequest("breakpoints/status", nil))
	require.NoError(t, err)
	assert.Empty(t, params.IDs)

	params, err = RequestToStatusParams(factory.JSONRPCRequest("breakpoints/status", map[string]interface{}{"ids": []string{"x"}}))
	require.NoError(t, err)
	assert.Equal(t, []entity.BreakpointID{"x"}, params.IDs)
}

func TestToRPCError(t *testing.T) {
	assert.NoError(t, ToRPCError(nil))

	other := errors.New("boom")
	assert.Equal(t, other, ToRPCError(other))

	tests := []struct {
		name string
		err  error
		code jsonrpc2.Code
	}{
		{
			name: "unknown breakpoints",
			err:  fmt.Errorf("apply: %w", &bperrors.UnknownBreakpointError{IDs: []entity.BreakpointID{"gone"}}),
			code: CodeUnknownBreakpoints,
		},
		{
			name: "removal pending",
			err:  fmt.Errorf("apply: %w", &bperrors.RemovalPendingError{IDs: []entity.BreakpointID{"leaving"}}),
			code: CodeRemovalPending,
		},
		{
			name: "closed",
			err:  fmt.Errorf("apply: %w", bperrors.ErrClosed),
			code: CodeUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rpcErr *jsonrpc2.Error
			require.True(t, errors.As(ToRPCError(tt.err), &rpcErr))
			assert.Equal(t, tt.code, rpcErr.Code)
		})
	}
}
