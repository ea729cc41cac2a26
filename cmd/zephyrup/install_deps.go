// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zephyrup/zephyrup/internal/inventory"
	"github.com/zephyrup/zephyrup/internal/issue"
)

type installDepsOptions struct {
	print  bool
	family string
}

// newInstallDepsCommand creates the `zephyrup install-deps` command.
func newInstallDepsCommand(app *App) *cobra.Command {
	var opts installDepsOptions

	cmd := &cobra.Command{
		Use:   "install-deps",
		Short: "Install missing host dependencies with the OS package manager",
		Long: `Install the dependencies 'zephyrup doctor' reports as missing.

On Debian and Fedora the package manager runs in a new terminal window so
sudo can ask for a password. On Windows winget runs in an elevated
PowerShell. On macOS Homebrew runs in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstallDeps(cmd.Context(), app, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.print, "print", false, "print the install command instead of running it")
	cmd.Flags().StringVar(&opts.family, "family", "", "plan for another OS family (debian, fedora, darwin, windows)")

	return cmd
}

func runInstallDeps(ctx context.Context, app *App, opts installDepsOptions) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	family, err := app.hostFamily(opts.family)
	if err != nil {
		return err
	}

	report := app.Checkers(family).CheckDependencies(ctx)
	installer := app.Installers(cfg.WingetSource)
	plan, err := installer.Plan(report)
	switch {
	case errors.Is(err, inventory.ErrNothingToInstall):
		fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" Nothing to install.")
		warnUnmapped(app, plan)
		return nil
	case errors.Is(err, inventory.ErrNoInstaller):
		return issue.NewErrorContext().
			WithOperation("install dependencies").
			WithResource(string(family)).
			WithIssue(issue.HostNotSupportedId).
			Wrap(err).
			BuildError()
	case err != nil:
		return err
	}

	warnUnmapped(app, plan)
	if opts.print {
		fmt.Fprintln(app.stdout, plan.Command)
		return nil
	}

	fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render("Installing:"), strings.Join(plan.Packages, " "))
	if err := installer.Launch(ctx, plan, app.outputSink()); err != nil {
		ectx := issue.NewErrorContext().
			WithOperation("launch the package installer").
			WithSuggestion("Run the command yourself: " + plan.Command).
			Wrap(err)
		if errors.Is(err, inventory.ErrNoTerminal) {
			ectx.WithIssue(issue.NoTerminalEmulatorId)
		}
		return ectx.BuildError()
	}
	if plan.Interactive {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("The installer runs in a separate window. Run 'zephyrup doctor' when it finishes."))
	}
	return nil
}

func warnUnmapped(app *App, plan *inventory.InstallPlan) {
	if plan == nil || len(plan.Unmapped) == 0 {
		return
	}
	fmt.Fprintf(app.stderr, "%s no package known for: %s\n", WarningStyle.Render("Warning:"), strings.Join(plan.Unmapped, ", "))
}
