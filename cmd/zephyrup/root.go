// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the zephyrup command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zephyrup",
		Short: "Provision and manage Zephyr RTOS development environments",
		Long: TitleStyle.Render("zephyrup") + SubtitleStyle.Render(" - Zephyr RTOS environment provisioning") + `

zephyrup installs a Zephyr workspace with its own Python virtual environment,
checks the host for the tools Zephyr needs, and creates projects from a west
manifest. Every external tool runs with the virtual environment activated,
so nothing has to be sourced by hand.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Check the host with: zephyrup doctor
  2. Install missing packages with: zephyrup install-deps
  3. Install Zephyr with: zephyrup install ~/zephyrproject
  4. Create a project with: zephyrup project new robot

` + SubtitleStyle.Render("Examples:") + `
  zephyrup env                   Show whether git, python, west and the SDK are usable
  zephyrup west -- build -b nrf52840dk/nrf52840 app
  zephyrup project history       List recently opened projects
  zephyrup config show           Show current configuration`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.applyConfigDefaults(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.opts.configPath, "config", "", "config file (default is $ZEPHYRUP_CONFIG, then $XDG_CONFIG_HOME/zephyrup/config.cue)")
	flags.BoolVar(&app.opts.crlf, "crlf", false, "terminate streamed output lines with CRLF (for raw terminals)")

	rootCmd.AddCommand(
		newInstallCommand(app),
		newProjectCommand(app),
		newDoctorCommand(app),
		newEnvCommand(app),
		newInstallDepsCommand(app),
		newWestCommand(app),
		newShellCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		renderIssue(app.stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
