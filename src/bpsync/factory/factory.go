// Package factory holds constructors for ids and test fixtures.
package factory

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/uber/bpsync/src/bpsync/entity"
	"go.lsp.dev/jsonrpc2"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// BreakpointID is a factory for a random, unique breakpoint id.
func BreakpointID() entity.BreakpointID {
	return entity.BreakpointID(UUID().String())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// Breakpoint is a factory for an enabled execution breakpoint at module+offset.
func Breakpoint(id int, module string, offset uint64) *entity.Breakpoint {
	return entity.NewBreakpoint(entity.BreakpointID(fmt.Sprintf("bp-%d", id)), entity.Spec{
		Address: entity.Address{Module: module, Offset: offset},
		Kind:    entity.KindExecution,
	})
}

// Modules is a factory for a module map with one unsized module per name.
func Modules(names ...string) entity.ModuleMap {
	m := make(entity.ModuleMap, 0, len(names))
	for i, n := range names {
		m = append(m, entity.Module{Name: n, Base: uint64(i+1) << 24})
	}
	return m
}
