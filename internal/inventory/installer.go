// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/zephyrup/zephyrup/internal/platform"
	"github.com/zephyrup/zephyrup/internal/runtime"
)

// closePrompt keeps the terminal window open so the user can read the result.
const closePrompt = "echo 'Press Enter to close...'; read _"

var (
	// ErrNothingToInstall is returned when no missing dependency maps to a package.
	ErrNothingToInstall = errors.New("nothing to install")

	// ErrNoTerminal is returned when no supported terminal emulator is on PATH.
	ErrNoTerminal = errors.New("no supported terminal emulator found")

	// ErrNoInstaller is returned for families without a package manager recipe.
	ErrNoInstaller = errors.New("no package installer for this platform")
)

type (
	// Terminal describes how to run a command in a terminal emulator window.
	Terminal struct {
		Name string
		// ExecArgs precede the command to run.
		ExecArgs []string
	}

	// InstallPlan is the package-manager invocation for a set of missing dependencies.
	InstallPlan struct {
		Family   platform.Family
		Packages []string
		// Unmapped lists dependencies with no known package.
		Unmapped []string
		// Command is the installer command line, for display and for terminal launch.
		Command string
		// Interactive is true when the command needs a terminal or elevation prompt.
		Interactive bool
	}

	// Installer plans and launches dependency installs.
	Installer struct {
		Names PackageNames
		// WingetSource replaces the default winget source when non-empty.
		WingetSource string
		Terminals    []Terminal
		LookPath     func(string) (string, error)
		Runner       *runtime.Runner
	}
)

// DefaultTerminals are tried in order on Linux.
func DefaultTerminals() []Terminal {
	return []Terminal{
		{Name: "x-terminal-emulator", ExecArgs: []string{"-e"}},
		{Name: "gnome-terminal", ExecArgs: []string{"--"}},
		{Name: "konsole", ExecArgs: []string{"-e"}},
		{Name: "xfce4-terminal", ExecArgs: []string{"-x"}},
		{Name: "xterm", ExecArgs: []string{"-e"}},
	}
}

// NewInstaller creates an Installer with the built-in tables.
func NewInstaller() *Installer {
	return &Installer{
		Names:     DefaultPackageNames(),
		Terminals: DefaultTerminals(),
		LookPath:  exec.LookPath,
		Runner:    runtime.NewRunner(),
	}
}

// Plan builds the install command for every missing dependency in report.
func (in *Installer) Plan(report EnvReport) (*InstallPlan, error) {
	if !report.Supported {
		return nil, ErrNoInstaller
	}

	packages, unmapped := in.Names.Resolve(report.Family, report.Missing())
	plan := &InstallPlan{Family: report.Family, Packages: packages, Unmapped: unmapped}
	if len(packages) == 0 {
		return plan, ErrNothingToInstall
	}

	quoted := quoteAll(packages)
	switch report.Family {
	case platform.Debian:
		plan.Command = "sudo apt install -y --no-install-recommends " + quoted
		plan.Interactive = true
	case platform.Fedora:
		plan.Command = "sudo dnf install -y " + quoted
		plan.Interactive = true
	case platform.Darwin:
		plan.Command = "brew install " + quoted
	case platform.Windows:
		plan.Command = in.wingetScript(packages)
		plan.Interactive = true
	default:
		return plan, ErrNoInstaller
	}
	return plan, nil
}

func (in *Installer) wingetScript(packages []string) string {
	var steps []string
	if in.WingetSource != "" {
		steps = append(steps,
			"winget source remove winget",
			"winget source add winget "+in.WingetSource+" --trust-level trusted",
		)
	}
	for _, pkg := range packages {
		steps = append(steps, "winget install --exact --id "+pkg)
	}
	steps = append(steps, "Read-Host 'Press Enter to exit'")
	return strings.Join(steps, "; ")
}

// Launch runs plan. Linux installs open in a terminal window so sudo can prompt;
// Windows installs run in an elevated PowerShell; Homebrew runs inline, streaming to sink.
func (in *Installer) Launch(ctx context.Context, plan *InstallPlan, sink runtime.LogSink) error {
	switch plan.Family {
	case platform.Debian, platform.Fedora:
		spec, err := in.terminalSpec(plan.Command)
		if err != nil {
			return err
		}
		return in.Runner.Start(spec)
	case platform.Windows:
		return in.Runner.Start(elevatedPowerShell(plan.Command))
	case platform.Darwin:
		return in.Runner.Run(ctx, runtime.Command("sh", "-c", plan.Command), sink).Err()
	default:
		return ErrNoInstaller
	}
}

// terminalSpec wraps command in the first available terminal emulator.
func (in *Installer) terminalSpec(command string) (runtime.ProcessSpec, error) {
	script := command + "; " + closePrompt
	for _, term := range in.Terminals {
		path, err := in.LookPath(term.Name)
		if err != nil {
			continue
		}
		args := append(append([]string{}, term.ExecArgs...), "bash", "-c", script)
		return runtime.Command(path, args...), nil
	}
	return runtime.ProcessSpec{}, ErrNoTerminal
}

func elevatedPowerShell(script string) runtime.ProcessSpec {
	return runtime.Command("powershell",
		"Start-Process", "powershell",
		"-Verb", "RunAs",
		"-ArgumentList", fmt.Sprintf("\"-NoExit -Command %s\"", script),
	)
}

func quoteAll(words []string) string {
	out := make([]string, len(words))
	for i, w := range words {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			q = w
		}
		out[i] = q
	}
	return strings.Join(out, " ")
}
