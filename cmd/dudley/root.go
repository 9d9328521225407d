// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"dudley/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
)

// newRootCommand builds the base command and its subcommand tree.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dudley",
		Short: "Build module orchestrator with content-based versioning",
		Long: TitleStyle.Render("dudley") + SubtitleStyle.Render(" - Build module orchestrator with content-based versioning") + `

dudley drives custom image builds: it discovers build modules under a
category tree, executes them in dependency order, computes content-based
versions for first-boot hooks, and records everything in a build manifest.

Modules live under <root>/<category>/<name>/ with a module.cue metadata
file. Categories run in a fixed order: shared-utilities, desktop,
developer-tools, user-hooks.

` + SubtitleStyle.Render("Examples:") + `
  dudley build                  Run the full build pipeline
  dudley validate               Check modules without executing anything
  dudley hash desktop/fonts/*   Compute a content version
  dudley build-info --json      Print the installed build manifest
  dudley hook gate my-hook --version abc12345    First-boot version gate`,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/dudley/config.cue)")

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newValidateCommand(app))
	rootCmd.AddCommand(newManifestCommand(app))
	rootCmd.AddCommand(newHashCommand(app))
	rootCmd.AddCommand(newHookCommand(app))
	rootCmd.AddCommand(newBuildInfoCommand(app))
	rootCmd.AddCommand(newDiskConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. Called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := newRootCommand(app)

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
