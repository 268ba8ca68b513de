// Package serverinfofile publishes the service's connection details in a JSON file for local tools.
package serverinfofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _configKeyInfoFile = "serverInfo.file"

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// ServerInfoFile manages the contents of a single server info file.
type ServerInfoFile interface {
	// UpdateField stores key and rewrites the file. It is a no-op when no file is configured.
	UpdateField(key string, value string) error
	// Fields returns a copy of the stored fields.
	Fields() map[string]string
}

type module struct {
	infofile     string
	logger       *zap.SugaredLogger
	fileContents map[string]string
	mu           sync.Mutex
}

// Params define values to be used by ServerInfoFile.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

// New creates a ServerInfoFile. The file is removed on stop.
func New(p Params) (ServerInfoFile, error) {
	m := &module{
		logger:       p.Logger,
		fileContents: make(map[string]string),
	}
	if m.logger == nil {
		m.logger = zap.NewNop().Sugar()
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: m.OnStop,
		})
	}

	return m, nil
}

func (m *module) OnStop(ctx context.Context) error {
	if m.infofile == "" {
		return nil
	}
	if err := os.Remove(m.infofile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (m *module) UpdateField(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fileContents[key] = value
	if m.infofile == "" {
		return nil
	}

	jsonOutput, err := json.Marshal(m.fileContents)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	// Readers never see a partial file.
	tmp := m.infofile + ".tmp"
	if err := os.WriteFile(tmp, jsonOutput, 0644); err != nil {
		return fmt.Errorf("creating info file: %w", err)
	}
	if err := os.Rename(tmp, m.infofile); err != nil {
		return fmt.Errorf("replacing info file: %w", err)
	}
	m.logger.Infow("connection info saved", zap.String("file", m.infofile), zap.String(key, value))
	return nil
}

func (m *module) Fields() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	fields := make(map[string]string, len(m.fileContents))
	for k, v := range m.fileContents {
		fields[k] = v
	}
	return fields
}

// processConfig reads the file location. An empty location disables the file.
func (m *module) processConfig(cfg config.Provider) error {
	if err := cfg.Get(_configKeyInfoFile).Populate(&m.infofile); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyInfoFile, err)
	}
	if m.infofile != "" {
		m.infofile = filepath.Clean(m.infofile)
		if err := os.MkdirAll(filepath.Dir(m.infofile), os.ModePerm); err != nil {
			return fmt.Errorf("creating info file directory: %w", err)
		}
	}
	return nil
}
