// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dudley/internal/config"
)

// newConfigCommand creates the `dudley config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dudley configuration",
		Long: `Manage dudley configuration.

Configuration is read from the first file found:
  1. the path given with --config
  2. /etc/dudley/config.cue
  3. $XDG_CONFIG_HOME/dudley/config.cue (~/.config/dudley/config.cue)

The system file wins over the user one: dudley runs as root inside
image builds, and a stray user config must not redirect system paths.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Effective Configuration"))
			fmt.Fprintln(app.stdout)
			printConfigValue(app, "modules_root", cfg.ModulesRoot)
			printConfigValue(app, "manifest_path", cfg.ManifestPath)
			printConfigValue(app, "state_dir", cfg.StateDir)
			printConfigValue(app, "hooks_install_dir", cfg.HooksInstallDir)
			printConfigValue(app, "default_runtime", string(cfg.DefaultRuntime))
			printConfigValue(app, "jobs", fmt.Sprintf("%d", cfg.Jobs))
			printConfigValue(app, "build.image", cfg.Build.Image)
			printConfigValue(app, "build.base", cfg.Build.Base)
			printConfigValue(app, "ui.color_scheme", string(cfg.UI.ColorScheme))
			printConfigValue(app, "ui.verbose", fmt.Sprintf("%v", cfg.UI.Verbose))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default user configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(config.DefaultConfig()); err != nil {
				return commandError(app, cmd, "Error", err)
			}
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), "wrote "+path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func printConfigValue(app *App, key, value string) {
	fmt.Fprintf(app.stdout, "%s: %s\n", ModuleStyle.Render(key), SuccessStyle.Render(value))
}
