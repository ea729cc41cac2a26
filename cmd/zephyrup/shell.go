// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"os"
	"os/exec"
	goruntime "runtime"

	"github.com/spf13/cobra"
)

// newShellCommand creates the `zephyrup shell` command.
func newShellCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell with the virtual environment activated",
		Long: `Start your login shell with the configured virtual environment on PATH
and ZEPHYR_BASE set. Exit the shell to return.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), app, dir)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "start the shell in this directory")

	return cmd
}

func runShell(ctx context.Context, app *App, dir string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	state, err := activatedState(cfg)
	if err != nil {
		return err
	}

	c := exec.CommandContext(ctx, userShell())
	c.Dir = dir
	c.Env = os.Environ()
	for k, v := range state.Overlay {
		c.Env = append(c.Env, k+"="+v)
	}
	if cfg.ZephyrBase != "" {
		c.Env = append(c.Env, "ZEPHYR_BASE="+cfg.ZephyrBase)
	}

	err = runInteractive(c, app.stdin, app.stdout)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return err
}

func userShell() string {
	if goruntime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}
