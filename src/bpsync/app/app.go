// Package app assembles the bpsync application.
package app

import (
	"context"
	"time"

	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/handler"
	"github.com/uber/bpsync/src/bpsync/internal/core"
	"github.com/uber/bpsync/src/bpsync/internal/fs"
	"github.com/uber/bpsync/src/bpsync/internal/jsonrpcfx"
	"github.com/uber/bpsync/src/bpsync/internal/serverinfofile"
	"go.uber.org/config"
	"go.uber.org/fx"
)

const (
	_serviceNameKey     = "service.name"
	_defaultServiceName = "bpsync"
)

// Module defines the bpsync application module.
var Module = fx.Options(
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	serverinfofile.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(newRootScope),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)

// newRootScope reports the service's metrics tagged with its name and environment.
func newRootScope(lc fx.Lifecycle, cfg config.Provider, env Context) tally.Scope {
	name := _defaultServiceName
	if v := cfg.Get(_serviceNameKey).String(); v != "" {
		name = v
	}

	rs, closer := tally.NewRootScope(tally.ScopeOptions{
		Tags: map[string]string{
			"service": name,
			"env":     env.Environment,
		},
	}, 1*time.Second)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})

	return rs
}
