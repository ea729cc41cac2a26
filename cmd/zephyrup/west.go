// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/issue"
	"github.com/zephyrup/zephyrup/internal/provision"
	"github.com/zephyrup/zephyrup/internal/runtime"
)

// newWestCommand creates the `zephyrup west` passthrough command.
func newWestCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "west [flags] -- <west args>",
		Short: "Run west from the configured virtual environment",
		Long: `Run west with the configured virtual environment activated, streaming
its output. Arguments after -- are passed to west unchanged.

The exit status of west becomes the exit status of zephyrup.`,
		Example: `  zephyrup west -- update
  zephyrup west -C ~/robot -- build -b nucleo_f446re app/app`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWest(cmd.Context(), app, dir, args)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "run west in this directory")

	return cmd
}

// activatedState resolves the configured venv for running tools.
func activatedState(cfg *config.Config) (*provision.State, error) {
	if cfg.VenvPath == "" {
		return nil, issue.NewErrorContext().
			WithOperation("activate the virtual environment").
			WithIssue(issue.VenvNotConfiguredId).
			WithSuggestion("Run 'zephyrup install <dir>' or 'zephyrup config set venv_path <dir>'").
			Wrap(provision.ErrVenvNotConfigured).
			BuildError()
	}
	state := &provision.State{}
	if err := state.Activate(cfg.VenvPath, goruntime.GOOS); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("activate the virtual environment").
			WithResource(cfg.VenvPath).
			WithIssue(issue.VenvNotConfiguredId).
			Wrap(err).
			BuildError()
	}
	return state, nil
}

func runWest(ctx context.Context, app *App, dir string, args []string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	state, err := activatedState(cfg)
	if err != nil {
		return err
	}

	spec, err := provision.West(state, cfg.Activation, args...)
	if err != nil {
		return err
	}
	res := app.Executor.Run(ctx, spec.WithDir(dir), app.outputSink())
	if res.Success() {
		return nil
	}
	return westError(spec, res)
}

// westError maps a failed west run onto the CLI error. A west that ran and
// exited non-zero passes its status through; a west that never started reports
// the spawn cause with the spawn status.
func westError(spec runtime.ProcessSpec, res *runtime.Result) error {
	switch {
	case runtime.IsSpawnError(res.Error):
		return &ExitError{
			Code: int(res.ExitCode),
			Err: issue.NewErrorContext().
				WithOperation("run west").
				WithResource(spec.String()).
				WithIssue(issue.ToolNotFoundId).
				Wrap(res.Error).
				BuildError(),
		}
	case errors.Is(res.Error, runtime.ErrTerminated):
		return fmt.Errorf("west was interrupted: %w", res.Error)
	case res.Error != nil:
		return fmt.Errorf("run west: %w", res.Error)
	default:
		return &ExitError{Code: int(res.ExitCode), Err: fmt.Errorf("west exited with status %d", res.ExitCode)}
	}
}
