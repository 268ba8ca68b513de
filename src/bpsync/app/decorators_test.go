package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/bpsync/src/bpsync/internal/fs"
	"github.com/uber/bpsync/src/bpsync/internal/fs/fsmock"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func loggingConfig(t *testing.T, outputs ...string) config.Provider {
	p, err := config.NewStaticProvider(map[string]interface{}{
		"logging": map[string]interface{}{
			"outputPaths": outputs,
		},
	})
	require.NoError(t, err)
	return p
}

func TestEnv(t *testing.T) {
	tests := []struct {
		name      string
		setEnvVal string
		expectVal string
	}{
		{
			name:      "local",
			expectVal: EnvLocal,
		},
		{
			name:      "development",
			setEnvVal: "development",
			expectVal: EnvDevelopment,
		},
		{
			name:      "unknown value falls back to local",
			setEnvVal: "production",
			expectVal: EnvLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnvVal != "" {
				t.Setenv(_envBpsyncEnvironment, tt.setEnvVal)
			}

			fxtest.New(
				t,
				fx.Provide(func() Context {
					return Context{
						Environment:        EnvLocal,
						RuntimeEnvironment: EnvLocal,
					}
				}),
				fx.Decorate(decorateEnvContext),
				fx.Invoke(func(ctx Context) {
					require.Equal(t, tt.expectVal, ctx.Environment, "unexpected environment")
					require.Equal(t, tt.expectVal, ctx.RuntimeEnvironment, "unexpected runtime environment")
				}),
			).RequireStart().RequireStop()
		})
	}
}

func TestDecorateConfigProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockFS(ctrl)
	fsMock.EXPECT().MkdirAll("/tmp/foo").Return(nil)

	fxtest.New(
		t,
		fx.Provide(func() fs.FS {
			return fsMock
		}),
		fx.Provide(func() config.Provider {
			return loggingConfig(t, "/tmp/foo/bpsync.log")
		}),
		fx.Provide(func() Context {
			return Context{RuntimeEnvironment: EnvDevelopment}
		}),
		fx.Decorate(decorateConfigProvider),
		fx.Invoke(func(cfg config.Provider) {}),
	).RequireStart().RequireStop()
}

func TestEnsureLogFolder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(nil)
		fsMock.EXPECT().MkdirAll("/tmp/bar").Return(nil)

		cfg := loggingConfig(t, "stdout", "/tmp/foo/bpsync.log", "/tmp/bar/bpsync.log")
		got, err := ensureLogFolder(cfg, fsMock)
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	})

	t.Run("error creating directory", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(errors.New("error creating directory"))

		_, err := ensureLogFolder(loggingConfig(t, "/tmp/foo/bpsync.log", "/tmp/bar/bpsync.log"), fsMock)
		assert.Error(t, err)
	})
}

func TestNewRootScope(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg, err := config.NewStaticProvider(map[string]interface{}{
		"service": map[string]interface{}{"name": "bpsync-test"},
	})
	require.NoError(t, err)

	scope := newRootScope(lc, cfg, Context{Environment: EnvDevelopment})
	scope.Counter("started").Inc(1)
	lc.RequireStart().RequireStop()
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
