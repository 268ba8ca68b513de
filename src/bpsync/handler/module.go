// Package handler provides the inbound surfaces of the bpsync service.
package handler

import (
	"github.com/uber/bpsync/src/bpsync/controller"
	"github.com/uber/bpsync/src/bpsync/controller/inventory"
	"github.com/uber/bpsync/src/bpsync/handler/control"
	"go.uber.org/fx"
)

// Module provides the control API and everything it depends on into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(control.New),
	fx.Invoke(func(h control.Handler) {}),
	fx.Invoke(func(c inventory.Controller) {}),
)
