// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/inventory"
	"github.com/zephyrup/zephyrup/internal/platform"
	"github.com/zephyrup/zephyrup/internal/provision"
	"github.com/zephyrup/zephyrup/internal/runtime"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: every Cobra command handler receives an App and reaches the
	// configuration, the process runner and the dependency checker through it.
	App struct {
		Config     ConfigProvider
		Stores     StoreOpener
		Executor   provision.Executor
		Checkers   CheckerFactory
		Installers InstallerFactory
		Detect     func() platform.Family
		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer

		opts globalOptions
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		Stores     StoreOpener
		Executor   provision.Executor
		Checkers   CheckerFactory
		Installers InstallerFactory
		Detect     func() platform.Family
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// StoreOpener returns the writable config store selected by opts.
	StoreOpener func(opts config.LoadOptions) (*config.Store, error)

	// CheckerFactory creates a dependency checker for a host family.
	CheckerFactory func(family platform.Family) *inventory.Checker

	// DependencyInstaller plans and launches OS package installs.
	DependencyInstaller interface {
		Plan(report inventory.EnvReport) (*inventory.InstallPlan, error)
		Launch(ctx context.Context, plan *inventory.InstallPlan, sink runtime.LogSink) error
	}

	// InstallerFactory creates an installer honoring the configured winget source.
	InstallerFactory func(wingetSource string) DependencyInstaller

	// globalOptions are bound to the root command's persistent flags.
	globalOptions struct {
		verbose    bool
		configPath string
		crlf       bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stores == nil {
		deps.Stores = config.OpenStore
	}
	if deps.Executor == nil {
		deps.Executor = runtime.NewRunner()
	}
	if deps.Checkers == nil {
		deps.Checkers = inventory.NewChecker
	}
	if deps.Installers == nil {
		deps.Installers = func(wingetSource string) DependencyInstaller {
			in := inventory.NewInstaller()
			in.WingetSource = wingetSource
			return in
		}
	}
	if deps.Detect == nil {
		deps.Detect = platform.Detect
	}

	return &App{
		Config:     deps.Config,
		Stores:     deps.Stores,
		Executor:   deps.Executor,
		Checkers:   deps.Checkers,
		Installers: deps.Installers,
		Detect:     deps.Detect,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}, nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.opts.configPath}
}

// loadConfig loads the configuration selected by --config. A --config file
// that does not exist yet reads as the defaults; the store creates it on the
// first write.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("configuration file not found, using defaults", "path", a.opts.configPath)
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

// store opens the configuration store selected by --config. The file does not
// need to exist yet.
func (a *App) store() (*config.Store, error) {
	s, err := a.Stores(a.loadOptions())
	if err != nil {
		return nil, fmt.Errorf("open configuration: %w", err)
	}
	return s, nil
}

// applyConfigDefaults reads the configuration once before any command runs so
// ui.verbose can switch on debug logging. Load failures are reported but do
// not stop commands that never read the file.
func (a *App) applyConfigDefaults(ctx context.Context) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.opts.verbose))
	} else if !a.opts.verbose {
		a.opts.verbose = cfg.UI.Verbose
	}
	slog.SetDefault(newLogger(a.stderr, a.opts.verbose))
}

// pipeline returns a provisioning pipeline on the app's executor. Phase
// transitions are logged at debug level.
func (a *App) pipeline() *provision.Pipeline {
	return provision.NewPipeline(a.Executor, provision.WithObserver(func(s provision.Status) {
		if s.Phase == provision.Failed {
			slog.Debug("pipeline step failed", "step", s.Name, "error", s.Err)
			return
		}
		slog.Debug("pipeline", "phase", s.Phase, "step", s.Name)
	}))
}

// hostFamily returns the detected family unless override names one.
func (a *App) hostFamily(override string) (platform.Family, error) {
	if override == "" {
		return a.Detect(), nil
	}
	f := platform.Family(override)
	switch f {
	case platform.Debian, platform.Fedora, platform.Windows, platform.Darwin, platform.Linux:
		return f, nil
	default:
		return "", fmt.Errorf("unknown OS family %q (valid: debian, fedora, linux, darwin, windows)", override)
	}
}
