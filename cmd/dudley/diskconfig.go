// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dudley/internal/diskcfg"
)

// newDiskConfigCommand creates the `dudley disk-config` command tree.
func newDiskConfigCommand(app *App) *cobra.Command {
	diskCmd := &cobra.Command{
		Use:   "disk-config",
		Short: "Inspect bootc-image-builder disk configurations",
		Long: `Inspect bootc-image-builder disk configurations.

ISO and disk image builds consume TOML customization files under
disk_config/ (` + diskcfg.DefaultISOPath + `, ` + diskcfg.DefaultDiskPath + `).
These commands parse and validate them before they ever reach
bootc-image-builder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	diskCmd.AddCommand(newDiskConfigShowCommand(app))

	return diskCmd
}

func newDiskConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Parse and display a disk configuration",
		Long: `Parse and display a disk configuration.

Without an argument, reads ` + diskcfg.DefaultISOPath + ` relative to the
current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := diskcfg.DefaultISOPath
			if len(args) == 1 {
				path = args[0]
			}

			cfg, err := diskcfg.Load(path)
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Disk Configuration"))
			fmt.Fprintf(app.stdout, "Path: %s\n\n", ModuleStyle.Render(path))
			fmt.Fprint(app.stdout, cfg.Summary())
			return nil
		},
	}
}
