// Package controller wires the breakpoint engine into an Fx application.
package controller

import (
	"github.com/uber/bpsync/src/bpsync/controller/coordinator"
	"github.com/uber/bpsync/src/bpsync/controller/inventory"
	"github.com/uber/bpsync/src/bpsync/controller/provider"
	"github.com/uber/bpsync/src/bpsync/internal/clock"
	"github.com/uber/bpsync/src/bpsync/repository/registry"
	"go.uber.org/fx"
)

// Module provides the registry, provider, coordinator and inventory controller.
var Module = fx.Options(
	registry.Module,
	clock.Module,
	fx.Provide(provider.New),
	fx.Provide(coordinator.New),
	fx.Provide(inventory.New),
)
