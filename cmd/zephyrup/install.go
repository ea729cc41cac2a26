// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/provision"
)

type installOptions struct {
	sdkDir  string
	shallow bool
	python  string
	noSave  bool
}

// newInstallCommand creates the `zephyrup install` command.
func newInstallCommand(app *App) *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "install <dir>",
		Short: "Install a Zephyr workspace with its own virtual environment",
		Long: `Install a Zephyr workspace into <dir>.

The install creates <dir>/.venv, installs west into it, initializes and
updates the Zephyr workspace, installs the Python requirements and finally
installs the Zephyr SDK. When pip_index_url is configured, pip is upgraded
from that index and the index is saved inside the virtual environment.

On success venv_path and zephyr_base are saved to the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), app, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.sdkDir, "sdk-dir", "", "install the Zephyr SDK into this directory")
	cmd.Flags().BoolVar(&opts.shallow, "shallow", false, "clone repositories without blobs (faster, less disk)")
	cmd.Flags().StringVar(&opts.python, "python", "", "interpreter used to create the virtual environment")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not record the environment in the configuration")

	return cmd
}

func runInstall(ctx context.Context, app *App, target string, opts installOptions) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	python := opts.python
	if python == "" {
		python = cfg.Python
	}
	installOpts := []provision.Option{
		provision.WithSDKDestination(opts.sdkDir),
		provision.WithShallowClone(opts.shallow),
		provision.WithMirror(cfg.PipIndexURL),
		provision.WithPython(python),
	}

	res, err := provision.Provision(ctx, app.pipeline(), target, app.outputSink(), installOpts...)
	if err != nil {
		return app.pipelineError("install Zephyr", err)
	}

	if !opts.noSave {
		store, err := app.store()
		if err != nil {
			return err
		}
		if _, err := store.Update(ctx, func(c *config.Config) error {
			c.VenvPath = res.VenvPath
			c.ZephyrBase = res.ZephyrBase
			return nil
		}); err != nil {
			return fmt.Errorf("save environment to %s: %w", store.Path(), err)
		}
	}

	fmt.Fprintf(app.stdout, "%s Zephyr installed in %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(res.Target))
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("venv:"), res.VenvPath)
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("zephyr_base:"), res.ZephyrBase)
	return nil
}
