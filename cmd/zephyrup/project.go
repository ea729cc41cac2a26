// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/issue"
	"github.com/zephyrup/zephyrup/internal/project"
	"github.com/zephyrup/zephyrup/internal/provision"
)

// newProjectCommand creates the `zephyrup project` command tree.
func newProjectCommand(app *App) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Create and manage Zephyr project workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	projectCmd.AddCommand(
		newProjectNewCommand(app),
		newProjectOpenCommand(app),
		newProjectHistoryCommand(app),
		&cobra.Command{
			Use:   "remove <dir>",
			Short: "Remove a project from the history (files are kept)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return removeProject(cmd.Context(), app, args[0])
			},
		},
		&cobra.Command{
			Use:   "name <dir>",
			Short: "Print the CMake project name of a workspace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := project.DetectName(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "check <dir>",
			Short: "Check that a workspace has app/app/CMakeLists.txt",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return checkProject(app, args[0])
			},
		},
		newProjectDeleteCommand(app),
	)

	return projectCmd
}

func newProjectNewCommand(app *App) *cobra.Command {
	var (
		parent string
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a workspace from the configured west manifest",
		Long: `Create a new workspace named <name> from the configured west manifest.

The workspace is recorded in the project history before west runs, so a
failed download can be retried from the history. When west finishes, the
history name is replaced by the project() name from app/app/CMakeLists.txt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newProject(cmd.Context(), app, parent, args[0], !full)
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "C", ".", "directory the workspace is created in")
	cmd.Flags().BoolVar(&full, "full", false, "clone full history instead of clone_depth commits")

	return cmd
}

func newProject(ctx context.Context, app *App, parent, name string, shallow bool) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	store, err := app.store()
	if err != nil {
		return err
	}

	opts := provision.ProjectOptionsFromConfig(cfg, parent, name, shallow)
	res, err := provision.CreateProject(ctx, app.pipeline(), store, opts, app.outputSink())
	if err != nil {
		if _, ok := provision.AsStepError(err); ok {
			return app.pipelineError("create project "+name, err)
		}
		return err
	}

	fmt.Fprintf(app.stdout, "%s Created project %s in %s\n",
		SuccessStyle.Render("✓"), TitleStyle.Render(res.Name), CmdStyle.Render(res.Workspace))
	return nil
}

func newProjectOpenCommand(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "open <dir>",
		Short: "Record an existing workspace in the project history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return openProject(cmd.Context(), app, args[0], name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (default: CMake project name, then directory name)")

	return cmd
}

func openProject(ctx context.Context, app *App, dir, name string) error {
	path, err := existingDir(dir)
	if err != nil {
		return err
	}
	if name == "" {
		if detected, detectErr := project.DetectName(path); detectErr == nil {
			name = detected
		}
	}

	store, err := app.store()
	if err != nil {
		return err
	}
	rec, err := store.OpenProject(ctx, path, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s Opened %s (%s)\n", SuccessStyle.Render("✓"), TitleStyle.Render(rec.Name), rec.Path)
	if !project.CMakeExists(path) {
		fmt.Fprintln(app.stdout, WarningStyle.Render("  no app/app/CMakeLists.txt in this workspace"))
	}
	return nil
}

func newProjectHistoryCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently opened projects, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(app.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg.ProjectHistory)
			}
			renderHistory(app, cfg.ProjectHistory)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the history as JSON")

	return cmd
}

func renderHistory(app *App, history []config.ProjectRecord) {
	if len(history) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no projects yet)"))
		return
	}
	for _, rec := range history {
		opened := time.Unix(rec.LastOpened, 0).Format(time.DateTime)
		fmt.Fprintf(app.stdout, "%s  %s  %s\n", TitleStyle.Render(rec.Name), CmdStyle.Render(rec.Path), SubtitleStyle.Render(opened))
	}
}

func removeProject(ctx context.Context, app *App, dir string) error {
	path, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	store, err := app.store()
	if err != nil {
		return err
	}
	if err := store.RemoveProject(ctx, path); err != nil {
		if errors.Is(err, config.ErrProjectNotFound) {
			return issue.NewErrorContext().
				WithOperation("remove project").
				WithResource(path).
				WithIssue(issue.ProjectNotFoundId).
				WithSuggestion("Run 'zephyrup project history' to list recorded projects").
				Wrap(err).
				BuildError()
		}
		return err
	}
	fmt.Fprintf(app.stdout, "%s Removed %s from history\n", SuccessStyle.Render("✓"), path)
	return nil
}

func checkProject(app *App, dir string) error {
	if project.CMakeExists(dir) {
		fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), project.CMakeListsPath(dir))
		return nil
	}
	return &ExitError{Code: 1, Err: fmt.Errorf("%w: %s", project.ErrCMakeListsNotFound, dir)}
}

func newProjectDeleteCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <dir>",
		Short: "Delete a project directory and forget it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteProject(cmd.Context(), app, args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func deleteProject(ctx context.Context, app *App, dir string, yes bool) error {
	path, err := existingDir(dir)
	if err != nil {
		return err
	}
	if !yes && !confirm(app, fmt.Sprintf("Delete %s and everything in it?", path)) {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("aborted"))
		return nil
	}
	if err := project.DeleteDirectory(path); err != nil {
		return err
	}

	store, err := app.store()
	if err != nil {
		return err
	}
	if err := store.RemoveProject(ctx, path); err != nil && !errors.Is(err, config.ErrProjectNotFound) {
		return err
	}
	fmt.Fprintf(app.stdout, "%s Deleted %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

// existingDir returns the absolute form of dir, which must be a directory.
func existingDir(dir string) (string, error) {
	path, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = project.ErrNotDirectory
		}
		return "", issue.NewErrorContext().
			WithOperation("open project").
			WithResource(path).
			WithIssue(issue.ProjectNotFoundId).
			WithSuggestion("Check the path, or create the project with 'zephyrup project new'").
			Wrap(err).
			BuildError()
	}
	return path, nil
}

// confirm asks a yes/no question on stdin. Anything but y or yes is a no.
func confirm(app *App, question string) bool {
	fmt.Fprintf(app.stdout, "%s [y/N] ", question)
	line, err := bufio.NewReader(app.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
