// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zephyrup/zephyrup/internal/config"
	"github.com/zephyrup/zephyrup/internal/issue"
)

// newConfigCommand creates the `zephyrup config` command tree.
// Subcommands that read configuration use the App's ConfigProvider; writes go
// through the config Store.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage zephyrup configuration",
		Long: `Manage zephyrup configuration.

Configuration is stored in:
  - Linux: ~/.config/zephyrup/config.cue
  - macOS: ~/Library/Application Support/zephyrup/config.cue
  - Windows: %APPDATA%\zephyrup\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.store()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, store.Path())
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Valid keys: ` + strings.Join(config.SettableKeys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), app, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	unset := SubtitleStyle.Render("(not set)")
	value := func(v string) string {
		if v == "" {
			return unset
		}
		return valueStyle.Render(v)
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)

	if store, storeErr := app.store(); storeErr == nil {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), store.Path())
	}
	fmt.Fprintln(app.stdout)

	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("zephyr_base"), value(cfg.ZephyrBase))
	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("venv_path"), value(cfg.VenvPath))
	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("python"), value(cfg.Python))
	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("pip_index_url"), value(cfg.PipIndexURL))
	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("winget_source"), value(cfg.WingetSource))
	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("activation"), value(cfg.Activation.String()))
	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("clone_depth"), valueStyle.Render(fmt.Sprint(cfg.CloneDepth)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("manifest"))
	fmt.Fprintf(app.stdout, "  url: %s\n", value(cfg.Manifest.URL))
	fmt.Fprintf(app.stdout, "  revision: %s\n", value(cfg.Manifest.Revision))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(app.stdout, "  color_scheme: %s\n", value(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(app.stdout, "  verbose: %s\n", valueStyle.Render(fmt.Sprint(cfg.UI.Verbose)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("project_history"),
		valueStyle.Render(fmt.Sprintf("%d of %d", len(cfg.ProjectHistory), config.MaxHistory)))

	return nil
}

func initConfig(app *App) error {
	store, err := app.store()
	if err != nil {
		return err
	}
	created, err := store.Init()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), store.Path())
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), store.Path())
	return nil
}

func setConfigValue(ctx context.Context, app *App, key, value string) error {
	store, err := app.store()
	if err != nil {
		return err
	}
	if _, err := store.Update(ctx, func(c *config.Config) error {
		return config.SetValue(c, key, value)
	}); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			return issue.NewErrorContext().
				WithOperation("set configuration value").
				WithResource(key).
				WithSuggestion("Valid keys: " + strings.Join(config.SettableKeys(), ", ")).
				Wrap(err).
				BuildError()
		}
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
