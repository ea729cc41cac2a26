// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strconv"
	"strings"

	"github.com/zephyrup/zephyrup/internal/issue"

	"cuelang.org/go/cue/literal"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "zephyrup"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the zephyrup configuration directory: %APPDATA% on Windows,
// ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (default ~/.config)
// elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch goruntime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns <ConfigDir>/config.cue.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// resolvePath picks the config file for opts. An explicit file must exist;
// the directory form may point at a file that does not exist yet.
func resolvePath(opts LoadOptions) (path string, explicit bool, err error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, true, nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		if dir, err = ConfigDir(); err != nil {
			return "", false, err
		}
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), false, nil
}

// loadWithOptions reads and validates the config selected by opts, returning
// defaults when no file exists at the default location.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	path, explicit, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}

	if !fileExists(path) {
		if explicit {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'zephyrup config init --config <path>' to create it").
				Wrap(fmt.Errorf("config file not found: %w", os.ErrNotExist)).
				BuildError()
		}
		return DefaultConfig(), path, nil
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the configuration values match the expected schema").
			WithSuggestion("Run 'zephyrup config dump' to print a valid configuration").
			Wrap(err).
			BuildError()
	}
	return cfg, path, nil
}

// loadFile merges a CUE file over the defaults and unmarshals the result.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	configMap, err := decodeCUE(data, path)
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	normalize(&cfg)
	return &cfg, nil
}

// newViper returns a viper instance seeded with DefaultConfig.
func newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("pip_index_url", defaults.PipIndexURL)
	v.SetDefault("winget_source", defaults.WingetSource)
	v.SetDefault("manifest.url", defaults.Manifest.URL)
	v.SetDefault("manifest.revision", defaults.Manifest.Revision)
	v.SetDefault("clone_depth", defaults.CloneDepth)
	v.SetDefault("activation", string(defaults.Activation))
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	return v
}

// normalize replaces nil slices so that GenerateCUE and JSON output are stable.
func normalize(cfg *Config) {
	if cfg.ProjectHistory == nil {
		cfg.ProjectHistory = []ProjectRecord{}
	}
	if cfg.RecentProjects == nil {
		cfg.RecentProjects = []string{}
	}
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// SetValue assigns a scalar field addressed by its CUE key (for example
// "manifest.url" or "clone_depth"). The list fields are not settable.
func SetValue(cfg *Config, key, value string) error {
	switch key {
	case "zephyr_base":
		cfg.ZephyrBase = value
	case "venv_path":
		cfg.VenvPath = value
	case "python":
		cfg.Python = value
	case "pip_index_url":
		cfg.PipIndexURL = value
	case "winget_source":
		cfg.WingetSource = value
	case "manifest.url":
		cfg.Manifest.URL = value
	case "manifest.revision":
		cfg.Manifest.Revision = value
	case "clone_depth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("clone_depth: %w", err)
		}
		cfg.CloneDepth = n
	case "activation":
		cfg.Activation = ActivationMode(value)
	case "ui.color_scheme":
		cfg.UI.ColorScheme = ColorScheme(value)
	case "ui.verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.verbose: %w", err)
		}
		cfg.UI.Verbose = b
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return cfg.Validate()
}

// SettableKeys lists the keys accepted by SetValue.
func SettableKeys() []string {
	return []string{
		"zephyr_base", "venv_path", "python", "pip_index_url", "winget_source",
		"manifest.url", "manifest.revision", "clone_depth", "activation",
		"ui.color_scheme", "ui.verbose",
	}
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// zephyrup configuration file\n")
	sb.WriteString("// Written by zephyrup; edits are preserved as long as they validate.\n\n")

	if cfg.ZephyrBase != "" {
		fmt.Fprintf(&sb, "zephyr_base: %s\n", cueString(cfg.ZephyrBase))
	}
	if cfg.VenvPath != "" {
		fmt.Fprintf(&sb, "venv_path: %s\n", cueString(cfg.VenvPath))
	}
	if cfg.Python != "" {
		fmt.Fprintf(&sb, "python: %s\n", cueString(cfg.Python))
	}
	fmt.Fprintf(&sb, "pip_index_url: %s\n", cueString(cfg.PipIndexURL))
	fmt.Fprintf(&sb, "winget_source: %s\n", cueString(cfg.WingetSource))
	fmt.Fprintf(&sb, "clone_depth: %d\n", cfg.CloneDepth)
	fmt.Fprintf(&sb, "activation: %s\n", cueString(string(cfg.Activation)))

	sb.WriteString("\nmanifest: {\n")
	fmt.Fprintf(&sb, "\turl: %s\n", cueString(cfg.Manifest.URL))
	fmt.Fprintf(&sb, "\trevision: %s\n", cueString(cfg.Manifest.Revision))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %s\n", cueString(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	sb.WriteString("\nproject_history: [")
	if len(cfg.ProjectHistory) > 0 {
		sb.WriteString("\n")
		for _, p := range cfg.ProjectHistory {
			fmt.Fprintf(&sb, "\t{path: %s, name: %s, last_opened: %d", cueString(p.Path), cueString(p.Name), p.LastOpened)
			if p.ProjectType != "" {
				fmt.Fprintf(&sb, ", project_type: %s", cueString(p.ProjectType))
			}
			if p.ZephyrVersion != "" {
				fmt.Fprintf(&sb, ", zephyr_version: %s", cueString(p.ZephyrVersion))
			}
			sb.WriteString("},\n")
		}
	}
	sb.WriteString("]\n")

	sb.WriteString("\nrecent_projects: [")
	if len(cfg.RecentProjects) > 0 {
		sb.WriteString("\n")
		for _, p := range cfg.RecentProjects {
			fmt.Fprintf(&sb, "\t%s,\n", cueString(p))
		}
	}
	sb.WriteString("]\n")

	return sb.String()
}

// cueString quotes s as a CUE string literal. CUE strings must be valid UTF-8,
// so invalid bytes become U+FFFD.
func cueString(s string) string {
	return literal.String.Quote(strings.ToValidUTF8(s, "\uFFFD"))
}
