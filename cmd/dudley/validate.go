// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dudley/internal/discovery"
	"dudley/internal/hash"
	"dudley/internal/module"
	"dudley/internal/orchestrator"
	"dudley/internal/watch"
)

// newValidateCommand creates the `dudley validate` command: the full
// discovery and planning pipeline without executing any module.
func newValidateCommand(app *App) *cobra.Command {
	var (
		rootDir   string
		watchMode bool
	)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate modules without executing anything",
		Long: `Validate the build module tree without executing anything.

Runs discovery, metadata parsing, and dependency graph validation for
every category: unknown dependency names, circular dependencies, and
name collisions are reported. For hook modules the content version is
computed, which also verifies that every hash dependency exists.

With --watch the command keeps running and re-validates whenever a
file under the modules root changes.

Examples:
  dudley validate                   Validate the configured modules root
  dudley validate --root ./build_files
  dudley validate --root ./build_files --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.loadConfig(ctx)
			if err != nil {
				return err
			}
			if rootDir == "" {
				rootDir = cfg.ModulesRoot
			}

			if !watchMode {
				return runValidation(app, cmd, rootDir)
			}

			// In watch mode a failed validation pass is reported but
			// does not end the loop; the next save gets a fresh run.
			if err := runValidation(app, cmd, rootDir); err != nil {
				fmt.Fprintln(app.stdout)
			}

			fmt.Fprintln(app.stdout, SubtitleStyle.Render("watching for changes (ctrl-c to stop)"))

			w, err := watch.New(watch.Config{
				Root:   rootDir,
				Logger: app.Logger,
				OnChange: func(_ context.Context, changed []string) error {
					for _, path := range changed {
						fmt.Fprintf(app.stdout, "%s %s\n", VerboseStyle.Render("changed:"), path)
					}
					fmt.Fprintln(app.stdout)
					if err := runValidation(app, cmd, rootDir); err != nil {
						fmt.Fprintln(app.stdout)
					}
					return nil
				},
			})
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}

			if err := w.Run(ctx); err != nil {
				return commandError(app, cmd, "Error", err)
			}
			return nil
		},
	}

	validateCmd.Flags().StringVar(&rootDir, "root", "", "modules root directory (default from config)")
	validateCmd.Flags().BoolVar(&watchMode, "watch", false, "re-run validation when module files change")

	return validateCmd
}

// runValidation executes one discovery, planning, and hook version pass
// and prints the report. It returns an ExitError on failure so a single
// non-watch invocation exits non-zero.
func runValidation(app *App, cmd *cobra.Command, rootDir string) error {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Module Validation"))
	fmt.Fprintf(app.stdout, "Root: %s\n\n", ModuleStyle.Render(rootDir))

	result, err := discovery.New(rootDir).DiscoverAll()
	if err != nil {
		return commandError(app, cmd, "Discovery failed", err)
	}

	plans, err := orchestrator.Plan(result)
	if err != nil {
		return commandError(app, cmd, "Planning failed", err)
	}

	for _, plan := range plans {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render(string(plan.Category)))
		for i, wave := range plan.Waves {
			fmt.Fprintf(app.stdout, "  wave %d:", i+1)
			for _, m := range wave {
				fmt.Fprintf(app.stdout, " %s", ModuleStyle.Render(m.Name))
			}
			fmt.Fprintln(app.stdout)
		}
	}

	failures := 0
	hooks := result.Hooks()
	if len(hooks) > 0 {
		fmt.Fprintln(app.stdout)
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("hook versions"))
		for _, hook := range hooks {
			version, hashErr := hash.Compute(hook.HashInputs())
			if hashErr != nil {
				failures++
				fmt.Fprintf(app.stdout, "  %s %s: %s\n",
					ErrorStyle.Render("✗"), hook.Name, hashErr)
				continue
			}
			fmt.Fprintf(app.stdout, "  %s %s: %s\n",
				SuccessStyle.Render("✓"), hook.Name, version)
		}
	}

	fmt.Fprintln(app.stdout)
	if failures > 0 {
		fmt.Fprintf(app.stdout, "%s %d module(s) failed validation\n",
			ErrorStyle.Render("✗"), failures)
		return silentExit(cmd, 1)
	}
	fmt.Fprintf(app.stdout, "%s %d module(s) valid across %d categories\n",
		SuccessStyle.Render("✓"), result.Count(), len(module.Categories()))
	return nil
}
