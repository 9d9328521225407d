// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dudley/internal/manifest"
)

// newBuildInfoCommand creates the `dudley build-info` command, the
// runtime reader for the installed build manifest.
func newBuildInfoCommand(app *App) *cobra.Command {
	var (
		manifestPath string
		jsonMode     bool
	)

	infoCmd := &cobra.Command{
		Use:   "build-info",
		Short: "Show what the installed image was built from",
		Long: `Show what the installed image was built from.

Reads the build manifest the image carries at ` + manifest.DefaultPath + `
and prints the build metadata and per-hook content versions. With
--json the manifest is printed verbatim for scripting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonMode {
				// Raw passthrough: scripts get the exact on-disk bytes.
				data, err := os.ReadFile(manifestPath)
				if err != nil {
					return commandError(app, cmd, "Error", err)
				}
				fmt.Fprint(app.stdout, string(data))
				return nil
			}

			doc, err := manifest.Read(manifestPath)
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}

			printManifest(app, doc)
			return nil
		},
	}

	infoCmd.Flags().StringVar(&manifestPath, "manifest", manifest.DefaultPath, "manifest path")
	infoCmd.Flags().BoolVar(&jsonMode, "json", false, "print the raw manifest JSON")

	return infoCmd
}
