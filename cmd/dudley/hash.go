// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dudley/internal/hash"
)

// newHashCommand creates the `dudley hash` command tree.
func newHashCommand(app *App) *cobra.Command {
	hashCmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: "Compute a content-based version for a set of files",
		Long: `Compute a content-based version for a set of files.

Paths are sorted lexicographically, file contents are concatenated and
hashed with SHA-256, and the digest is truncated to 8 lowercase hex
characters. The result depends only on file bytes: renaming a file or
listing the same files in a different order produces the same version.

Examples:
  dudley hash run.sh fonts.list
  dudley hash stamp run.sh abc12345`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := hash.Compute(args)
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}
			fmt.Fprintln(app.stdout, version)
			return nil
		},
	}

	hashCmd.AddCommand(newHashStampCommand(app))

	return hashCmd
}

func newHashStampCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stamp <file> <hash>",
		Short: "Replace the version placeholder in a file",
		Long: `Replace every occurrence of the version placeholder ` + hash.PlaceholderToken + `
in a file with the given 8-character content hash. A file without the
placeholder is left unchanged and reported as a warning, not an error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, version := args[0], args[1]

			replaced, err := hash.Stamp(file, version)
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}
			if replaced == 0 {
				fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+
					fmt.Sprintf("%s contains no %s placeholder", file, hash.PlaceholderToken))
				return nil
			}
			fmt.Fprintf(app.stdout, "stamped %d occurrence(s) in %s\n", replaced, file)
			return nil
		},
	}
}
