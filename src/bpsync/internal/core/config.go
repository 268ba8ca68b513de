// Package core provides configuration and logging for the bpsync service.
package core

import (
	"fmt"
	"os"
	"path/filepath"

	uber_config "go.uber.org/config"
	"go.uber.org/fx"
)

// ConfigModule provides the config.Provider.
var ConfigModule = fx.Options(
	fx.Provide(NewConfig),
)

const (
	_envConfigDir     = "BPSYNC_CONFIG_DIR"
	_defaultConfigDir = "src/bpsync/config"
)

// Config is a config.Provider backed by the files listed in meta.yaml.
type Config struct {
	provider uber_config.Provider
}

// Get returns the value at the given path.
func (c Config) Get(path string) uber_config.Value {
	return c.provider.Get(path)
}

// Name returns the provider name.
func (c Config) Name() string {
	return "config"
}

// NewConfig loads configuration from the directory named by BPSYNC_CONFIG_DIR.
func NewConfig() (uber_config.Provider, error) {
	return LoadConfig(getConfigDir())
}

// LoadConfig loads meta.yaml from configDir and then every file it lists, later files overriding earlier ones.
func LoadConfig(configDir string) (uber_config.Provider, error) {
	metaPath := filepath.Join(configDir, "meta.yaml")
	metaProvider, err := uber_config.NewYAML(
		uber_config.File(metaPath),
		uber_config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load meta configuration: %w", err)
	}

	var configFiles []string
	if err := metaProvider.Get("files").Populate(&configFiles); err != nil {
		return nil, fmt.Errorf("failed to read files list from meta.yaml: %w", err)
	}

	// Missing files are skipped so that optional overrides can be listed.
	var options []uber_config.YAMLOption
	for _, file := range configFiles {
		fullPath := filepath.Join(configDir, file)
		if _, err := os.Stat(fullPath); err == nil {
			options = append(options, uber_config.File(fullPath))
		}
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("no configuration files found in %s", configDir)
	}
	options = append(options, uber_config.Expand(os.LookupEnv))

	provider, err := uber_config.NewYAML(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return Config{provider: provider}, nil
}

// getConfigDir returns the path to the configuration directory
func getConfigDir() string {
	if configDir := os.Getenv(_envConfigDir); configDir != "" {
		return configDir
	}

	// Relative to the workspace root.
	return _defaultConfigDir
}
