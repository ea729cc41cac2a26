// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zephyrup/zephyrup/internal/inventory"
	"github.com/zephyrup/zephyrup/internal/issue"
)

type doctorOptions struct {
	asJSON bool
	strict bool
	family string
}

// newDoctorCommand creates the `zephyrup doctor` command.
func newDoctorCommand(app *App) *cobra.Command {
	var opts doctorOptions

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the host for the tools and libraries Zephyr needs",
		Long: `Check the host for the tools and libraries Zephyr needs.

Every entry of the dependency catalog for the host's OS family is probed:
tools are run with their version flag, libraries are looked up in the
package database. Missing dependencies can be installed with
'zephyrup install-deps'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), app, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with status 1 when a required dependency is missing")
	cmd.Flags().StringVar(&opts.family, "family", "", "check the catalog of another OS family (debian, fedora, linux, darwin, windows)")

	return cmd
}

func runDoctor(ctx context.Context, app *App, opts doctorOptions) error {
	family, err := app.hostFamily(opts.family)
	if err != nil {
		return err
	}
	report := app.Checkers(family).CheckDependencies(ctx)

	if opts.asJSON {
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		renderReport(app.stdout, report)
	}

	if !report.Supported {
		return issue.NewErrorContext().
			WithOperation("check dependencies").
			WithResource(string(report.Family)).
			WithIssue(issue.HostNotSupportedId).
			Wrap(fmt.Errorf("no dependency catalog for %s", report.Family)).
			BuildError()
	}
	if opts.strict && missingCritical(report) {
		return &ExitError{Code: 1, Err: issue.NewErrorContext().
			WithOperation("check dependencies").
			WithIssue(issue.DependenciesMissingId).
			WithSuggestion("Run 'zephyrup install-deps' to install them").
			Wrap(fmt.Errorf("%d required dependencies missing", countCritical(report.Missing()))).
			BuildError()}
	}
	return nil
}

func missingCritical(report inventory.EnvReport) bool {
	return countCritical(report.Missing()) > 0
}

func countCritical(deps []inventory.Dependency) int {
	n := 0
	for _, d := range deps {
		if d.Critical {
			n++
		}
	}
	return n
}

func renderReport(w io.Writer, report inventory.EnvReport) {
	fmt.Fprintf(w, "%s %s\n\n", TitleStyle.Render("Dependencies for"), CmdStyle.Render(string(report.Family)))
	if !report.Supported {
		fmt.Fprintln(w, WarningStyle.Render("This host is not supported."))
		return
	}

	for _, d := range report.Dependencies {
		mark := SuccessStyle.Render("✓")
		detail := ""
		switch {
		case d.Installed && d.Version != nil:
			detail = VerboseStyle.Render(*d.Version)
		case !d.Installed && d.Critical:
			mark = ErrorStyle.Render("✗")
			detail = ErrorStyle.Render("missing")
		case !d.Installed:
			mark = WarningStyle.Render("!")
			detail = WarningStyle.Render("missing (optional)")
		}
		fmt.Fprintf(w, "  %s %s %s\n", mark, reportNameStyle.Render(d.Name), detail)
	}

	fmt.Fprintln(w)
	if report.AllSatisfied {
		fmt.Fprintln(w, SuccessStyle.Render("All dependencies are installed."))
		return
	}
	fmt.Fprintf(w, "%s Run %s to install the missing packages.\n",
		WarningStyle.Render(fmt.Sprintf("%d missing.", len(report.Missing()))), CmdStyle.Render("zephyrup install-deps"))
}

// newEnvCommand creates the `zephyrup env` command.
func newEnvCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Show whether git, python, west and the Zephyr SDK are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := app.loadConfig(ctx)
			if err != nil {
				return err
			}
			status := app.Checkers(app.Detect()).CheckEnvironment(ctx, inventory.EnvInputs{
				VenvPath:   cfg.VenvPath,
				ZephyrBase: cfg.ZephyrBase,
				Python:     cfg.Python,
			})

			if asJSON {
				enc := json.NewEncoder(app.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			renderEnvStatus(app.stdout, status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")

	return cmd
}

func renderEnvStatus(w io.Writer, s inventory.EnvStatus) {
	row := func(name string, ok bool) {
		mark := SuccessStyle.Render("✓")
		if !ok {
			mark = ErrorStyle.Render("✗")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, name)
	}
	row("git", s.Git)
	row("python", s.Python)
	row("west", s.West)
	row("zephyr sdk", s.SDK)
	if !s.Ready() {
		fmt.Fprintf(w, "\nRun %s to set up the environment.\n", CmdStyle.Render("zephyrup install <dir>"))
	}
}
