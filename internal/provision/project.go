// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	goruntime "runtime"
	"strconv"
	"strings"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/platform"
	"github.com/zephyrup/zephyrup/internal/project"
	"github.com/zephyrup/zephyrup/internal/runtime"

	"mvdan.cc/sh/v3/syntax"
)

// ErrVenvNotConfigured is returned when a project plan has no virtual environment.
var ErrVenvNotConfigured = errors.New("virtual environment not configured")

type (
	// ProjectOptions controls CreateProjectPlan.
	ProjectOptions struct {
		// Parent is the directory the workspace is created in.
		Parent string
		// Name is the workspace directory name.
		Name string
		// ManifestURL and Revision select the west manifest.
		ManifestURL string
		Revision    string
		// CloneDepth limits history when greater than zero.
		CloneDepth int
		// VenvPath is the virtual environment providing west.
		VenvPath string
		// Activation selects how west is reached.
		Activation config.ActivationMode
		// GOOS selects the venv layout and the activation shell.
		GOOS string
	}

	// ProjectRegistry records projects in the history. *config.Store implements it.
	ProjectRegistry interface {
		RegisterProject(ctx context.Context, path, name string) (config.ProjectRecord, error)
		RenameProject(ctx context.Context, path, name string) error
	}

	// ProjectResult describes a created workspace.
	ProjectResult struct {
		Workspace string
		// Name is the CMake project name when detected, the directory name otherwise.
		Name string
	}
)

// ProjectOptionsFromConfig fills manifest, depth, venv and activation from cfg.
func ProjectOptionsFromConfig(cfg *config.Config, parent, name string, shallow bool) ProjectOptions {
	opts := ProjectOptions{
		Parent:      parent,
		Name:        name,
		ManifestURL: cfg.Manifest.URL,
		Revision:    cfg.Manifest.Revision,
		VenvPath:    cfg.VenvPath,
		Activation:  cfg.Activation,
		GOOS:        goruntime.GOOS,
	}
	if shallow {
		opts.CloneDepth = cfg.CloneDepth
	}
	return opts
}

// Workspace returns the workspace directory.
func (o ProjectOptions) Workspace() string {
	return filepath.Join(o.Parent, o.Name)
}

// CreateProjectPlan returns the steps that create a workspace from a manifest:
//
//  1. resolve-venv  locate the configured venv and build the overlay
//  2. west-init     west init -m <url> --mr <rev> [--clone-opt=--depth=N] <name>, in Parent
//  3. west-update   west update [--fetch-opt=--depth=N], in the workspace
func CreateProjectPlan(opts ProjectOptions) Plan {
	initArgs := []string{"init", "-m", opts.ManifestURL, "--mr", opts.Revision}
	updateArgs := []string{"update"}
	if opts.CloneDepth > 0 {
		depth := strconv.Itoa(opts.CloneDepth)
		initArgs = append(initArgs, "--clone-opt=--depth="+depth)
		updateArgs = append(updateArgs, "--fetch-opt=--depth="+depth)
	}
	initArgs = append(initArgs, opts.Name)

	return Plan{
		{
			Name:      "resolve-venv",
			Milestone: "Resolving virtual environment...",
			Local: func(_ context.Context, s *State) error {
				if opts.VenvPath == "" {
					return ErrVenvNotConfigured
				}
				return s.Activate(opts.VenvPath, opts.GOOS)
			},
		},
		{
			Name:      "west-init",
			Milestone: fmt.Sprintf("Initializing project %s from %s...", opts.Name, opts.ManifestURL),
			Command: func(s *State) (runtime.ProcessSpec, error) {
				spec, err := West(s, opts.Activation, initArgs...)
				return spec.WithDir(opts.Parent), err
			},
		},
		{
			Name:      "west-update",
			Milestone: "Updating project modules (this may take a while)...",
			Command: func(s *State) (runtime.ProcessSpec, error) {
				spec, err := West(s, opts.Activation, updateArgs...)
				return spec.WithDir(opts.Workspace()), err
			},
		},
	}
}

// West returns a ProcessSpec running west with args for an activated state.
//
// In overlay mode it runs "<interpreter> -m west" with the overlay. In script
// mode it sources the activate script in sh (cmd.exe on Windows) and runs west
// on the same command line. Both forms set TERM=xterm for west's progress output.
func West(s *State, mode config.ActivationMode, args ...string) (runtime.ProcessSpec, error) {
	if s.Interpreter == "" {
		return runtime.ProcessSpec{}, ErrInterpreterMissing
	}
	term := map[string]string{"TERM": "xterm"}

	switch mode {
	case config.ActivationScript:
		line, err := activationLine(s, args)
		if err != nil {
			return runtime.ProcessSpec{}, err
		}
		if s.Venv.GOOS == "windows" {
			return runtime.Command("cmd", "/C", line).WithEnv(term).Hidden(), nil
		}
		return runtime.Command("sh", "-c", line).WithEnv(term).Hidden(), nil
	case config.ActivationOverlay, "":
		return runtime.Command(s.Interpreter, append([]string{"-m", "west"}, args...)...).
			WithEnv(s.Overlay).
			WithEnv(term).
			Hidden(), nil
	default:
		return runtime.ProcessSpec{}, mode.Validate()
	}
}

// activationLine composes "<activate> && west args..." for the venv's shell.
func activationLine(s *State, args []string) (string, error) {
	script := s.Venv.ActivateScript()
	if s.Venv.GOOS == "windows" {
		words := make([]string, 0, len(args)+1)
		words = append(words, "west")
		for _, a := range args {
			words = append(words, cmdQuote(a))
		}
		return cmdQuote(script) + " && " + strings.Join(words, " "), nil
	}

	words := make([]string, 0, len(args)+3)
	words = append(words, ".", script, "&&", "west")
	words = append(words, args...)
	for i, w := range words {
		if w == "&&" {
			continue
		}
		q, err := syntax.Quote(w, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", w, err)
		}
		words[i] = q
	}
	return strings.Join(words, " "), nil
}

// cmdQuote wraps s in double quotes when cmd.exe would split it.
func cmdQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t&|<>^\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CreateProject registers the workspace in the history, then runs
// CreateProjectPlan. The registration persists whatever the outcome. On
// success the CMake project name, when found, replaces the history name.
func CreateProject(ctx context.Context, p *Pipeline, registry ProjectRegistry, opts ProjectOptions, sink runtime.LogSink) (*ProjectResult, error) {
	if err := platform.ValidateDirName(opts.Name); err != nil {
		return nil, err
	}
	parent, err := filepath.Abs(opts.Parent)
	if err != nil {
		return nil, fmt.Errorf("resolve parent %s: %w", opts.Parent, err)
	}
	opts.Parent = parent
	workspace := opts.Workspace()

	if _, err := registry.RegisterProject(ctx, workspace, opts.Name); err != nil {
		return nil, fmt.Errorf("record project %s: %w", workspace, err)
	}

	if err := p.Run(ctx, CreateProjectPlan(opts), &State{Target: parent}, sink); err != nil {
		return nil, err
	}

	result := &ProjectResult{Workspace: workspace, Name: opts.Name}
	name, err := project.DetectName(workspace)
	if err != nil {
		slog.Warn("could not detect project name", "workspace", workspace, "error", err)
		return result, nil
	}
	if name != opts.Name {
		if err := registry.RenameProject(ctx, workspace, name); err != nil {
			return nil, fmt.Errorf("rename project %s: %w", workspace, err)
		}
	}
	result.Name = name
	return result, nil
}
