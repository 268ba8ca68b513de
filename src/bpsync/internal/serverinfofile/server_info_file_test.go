package serverinfofile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func newConfig(t *testing.T, file interface{}) config.Provider {
	cfg, err := config.NewStaticProvider(map[string]interface{}{
		"serverInfo": map[string]interface{}{"file": file},
	})
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		file    interface{}
		wantErr bool
	}{
		{
			name: "file configured",
			file: filepath.Join(t.TempDir(), "nested", "server-info.json"),
		},
		{
			name: "file disabled",
			file: "",
		},
		{
			name:    "incorrectly formatted entry",
			file:    map[string]interface{}{"path": "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Params{
				Config:    newConfig(t, tt.file),
				Lifecycle: fxtest.NewLifecycle(t),
				Logger:    zap.NewNop().Sugar(),
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "server-info.json")
	lc := fxtest.NewLifecycle(t)
	m, err := New(Params{Config: newConfig(t, file), Lifecycle: lc})
	require.NoError(t, err)
	lc.RequireStart()

	require.NoError(t, m.UpdateField("control-address", "127.0.0.1:4000"))
	require.NoError(t, m.UpdateField("pid", "42"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]string{"control-address": "127.0.0.1:4000", "pid": "42"}, got)
	assert.Equal(t, got, m.Fields())

	lc.RequireStop()
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}

func TestDisabledFile(t *testing.T) {
	m, err := New(Params{Config: newConfig(t, "")})
	require.NoError(t, err)
	require.NoError(t, m.UpdateField("control-address", "127.0.0.1:4000"))
	assert.Equal(t, "127.0.0.1:4000", m.Fields()["control-address"])
	assert.NoError(t, m.(*module).OnStop(context.Background()))
}

func TestOnStopMissingFile(t *testing.T) {
	m := &module{infofile: filepath.Join(t.TempDir(), "never-written.json")}
	assert.NoError(t, m.OnStop(context.Background()))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
