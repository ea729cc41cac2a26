// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
)

// ConfigEnvVar names a config file to use when neither --config nor a config
// directory is given.
//
//nolint:revive // ConfigEnvVar reads better than EnvVar at call sites
const ConfigEnvVar = "ZEPHYRUP_CONFIG"

type (
	// LoadOptions selects the configuration file. The first non-empty source
	// wins: ConfigFilePath, ConfigDirPath, $ZEPHYRUP_CONFIG, the platform
	// config directory.
	LoadOptions struct {
		// ConfigFilePath forces a specific config file.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup.
		ConfigDirPath string
	}

	// Provider loads configuration using explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct {
		getenv func(string) string
	}
)

// NewProvider returns a Provider reading config.cue files.
func NewProvider() Provider {
	return &fileProvider{getenv: os.Getenv}
}

// Load reads and validates the selected file. A missing file at the default
// location yields DefaultConfig.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts.withEnv(p.getenv))
	return cfg, err
}

// withEnv fills ConfigFilePath from ConfigEnvVar when opts select no source.
func (o LoadOptions) withEnv(getenv func(string) string) LoadOptions {
	if o.ConfigFilePath != "" || o.ConfigDirPath != "" {
		return o
	}
	o.ConfigFilePath = getenv(ConfigEnvVar)
	return o
}
