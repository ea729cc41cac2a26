// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ActivationOverlay runs west through the venv interpreter with an environment overlay.
	ActivationOverlay ActivationMode = "overlay"
	// ActivationScript sources the venv activate script in a shell before running west.
	ActivationScript ActivationMode = "script"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// MaxHistory bounds project_history and recent_projects.
	MaxHistory = 10

	// ProjectTypeZephyr marks projects created or opened as Zephyr workspaces.
	ProjectTypeZephyr = "zephyr"

	// DefaultPipIndexURL is the PyPI mirror configured into new virtual environments.
	DefaultPipIndexURL = "https://mirrors.ustc.edu.cn/pypi/simple"
	// DefaultWingetSource replaces the winget source when installing dependencies on Windows.
	DefaultWingetSource = "https://mirrors.ustc.edu.cn/winget-source"
	// DefaultManifestURL is the west manifest repository for new projects.
	DefaultManifestURL = "https://github.com/RoboMaster-DLMU-CONE/one-starter"
	// DefaultManifestRevision is the manifest revision for new projects.
	DefaultManifestRevision = "main"
	// DefaultCloneDepth is the git depth used for shallow project clones.
	DefaultCloneDepth = 15
)

var (
	// ErrInvalidActivationMode is returned when an ActivationMode value is not recognized.
	ErrInvalidActivationMode = errors.New("invalid activation mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownKey is returned by SetValue for keys it does not manage.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrProjectNotFound is returned when a history operation names an unknown path.
	ErrProjectNotFound = errors.New("project not found in history")
)

type (
	// ActivationMode selects how project commands reach the venv's west.
	ActivationMode string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// Config is the persisted zephyrup configuration.
	Config struct {
		// ZephyrBase is the Zephyr checkout created by install (<target>/zephyr).
		ZephyrBase string `json:"zephyr_base,omitempty" mapstructure:"zephyr_base"`
		// VenvPath is the Python virtual environment root created by install.
		VenvPath string `json:"venv_path,omitempty" mapstructure:"venv_path"`
		// Python is the bootstrap interpreter used to create the venv. Empty selects
		// python3 (python on Windows).
		Python string `json:"python,omitempty" mapstructure:"python"`
		// PipIndexURL is the package index mirror. Empty skips the mirror steps.
		PipIndexURL string `json:"pip_index_url" mapstructure:"pip_index_url"`
		// WingetSource replaces the winget source before installing. Empty keeps the default.
		WingetSource string `json:"winget_source" mapstructure:"winget_source"`
		// Manifest is the west manifest used by new projects.
		Manifest ManifestConfig `json:"manifest" mapstructure:"manifest"`
		// CloneDepth is the git depth used for shallow project clones.
		CloneDepth int `json:"clone_depth" mapstructure:"clone_depth"`
		// Activation selects how project commands run west.
		Activation ActivationMode `json:"activation" mapstructure:"activation"`
		// UI contains user interface settings.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// ProjectHistory is ordered most recently opened first.
		ProjectHistory []ProjectRecord `json:"project_history" mapstructure:"project_history"`
		// RecentProjects is the legacy path list, most recent first.
		RecentProjects []string `json:"recent_projects" mapstructure:"recent_projects"`
	}

	// ManifestConfig points at a west manifest repository.
	ManifestConfig struct {
		URL      string `json:"url" mapstructure:"url"`
		Revision string `json:"revision" mapstructure:"revision"`
	}

	// UIConfig contains user interface settings.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}

	// ProjectRecord is one project history entry, keyed by Path.
	ProjectRecord struct {
		Path string `json:"path" mapstructure:"path"`
		Name string `json:"name" mapstructure:"name"`
		// LastOpened is a Unix timestamp in seconds.
		LastOpened    int64  `json:"last_opened" mapstructure:"last_opened"`
		ProjectType   string `json:"project_type,omitempty" mapstructure:"project_type"`
		ZephyrVersion string `json:"zephyr_version,omitempty" mapstructure:"zephyr_version"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PipIndexURL:  DefaultPipIndexURL,
		WingetSource: DefaultWingetSource,
		Manifest: ManifestConfig{
			URL:      DefaultManifestURL,
			Revision: DefaultManifestRevision,
		},
		CloneDepth: DefaultCloneDepth,
		Activation: ActivationOverlay,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		ProjectHistory: []ProjectRecord{},
		RecentProjects: []string{},
	}
}

// String returns the mode name.
func (m ActivationMode) String() string { return string(m) }

// Validate returns an error wrapping ErrInvalidActivationMode for unknown values.
func (m ActivationMode) Validate() error {
	switch m {
	case ActivationOverlay, ActivationScript:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: overlay, script)", ErrInvalidActivationMode, m)
	}
}

// String returns the scheme name.
func (c ColorScheme) String() string { return string(c) }

// Validate returns an error wrapping ErrInvalidColorScheme for unknown values.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: auto, dark, light)", ErrInvalidColorScheme, c)
	}
}

// Validate checks constraints shared with the CUE schema, for configs built in Go.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Activation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.CloneDepth < 1 {
		errs = append(errs, fmt.Errorf("clone_depth must be at least 1, got %d", c.CloneDepth))
	}
	if strings.TrimSpace(c.Manifest.URL) == "" {
		errs = append(errs, errors.New("manifest.url must not be empty"))
	}
	if strings.TrimSpace(c.Manifest.Revision) == "" {
		errs = append(errs, errors.New("manifest.revision must not be empty"))
	}
	if len(c.ProjectHistory) > MaxHistory {
		errs = append(errs, fmt.Errorf("project_history holds %d entries, max %d", len(c.ProjectHistory), MaxHistory))
	}
	for i, p := range c.ProjectHistory {
		if p.Path == "" {
			errs = append(errs, fmt.Errorf("project_history[%d].path must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
