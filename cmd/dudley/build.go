// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dudley/internal/config"
	"dudley/internal/discovery"
	"dudley/internal/hash"
	"dudley/internal/manifest"
	"dudley/internal/orchestrator"
)

// newBuildCommand creates the `dudley build` command, the full build-time
// pipeline: discover, execute, hash, stamp, install hooks, write manifest.
func newBuildCommand(app *App) *cobra.Command {
	var (
		rootDir      string
		manifestPath string
		runtimeMode  string
		imageRef     string
		baseRef      string
		commitRef    string
		hooksDir     string
		skipManifest bool
	)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Run the full build pipeline",
		Long: `Run the full build pipeline.

Discovers build modules under the modules root, executes them in fixed
category order (shared-utilities, desktop, developer-tools, user-hooks)
with dependency waves inside each category, then computes content-based
versions for hook modules, stamps version placeholders into their
entrypoints, installs them into the hooks directory, and writes the
build manifest.

The build halts on the first module failure; modules already in flight
finish, and nothing further is launched. Exit status 2 from a module
counts as an intentional skip, not a failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.loadConfig(ctx)
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}

			if rootDir == "" {
				rootDir = cfg.ModulesRoot
			}
			if manifestPath == "" {
				manifestPath = cfg.ManifestPath
			}
			if runtimeMode == "" {
				runtimeMode = string(cfg.DefaultRuntime)
			}
			if imageRef == "" {
				imageRef = cfg.Build.Image
			}
			if baseRef == "" {
				baseRef = cfg.Build.Base
			}
			if hooksDir == "" {
				hooksDir = cfg.HooksInstallDir
			}

			result, err := discovery.New(rootDir).DiscoverAll()
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}
			app.Logger.Info("modules discovered", "count", result.Count(), "root", rootDir)

			rt, err := app.newRuntime(config.RuntimeMode(runtimeMode))
			if err != nil {
				return err
			}

			orch := orchestrator.New(rt, app.Logger, orchestrator.WithJobs(cfg.Jobs))
			summary, runErr := orch.Run(ctx, result)
			printSummary(app, summary)
			if runErr != nil {
				return commandError(app, cmd, "Build failed", runErr)
			}

			if skipManifest {
				return nil
			}
			if len(result.Hooks()) == 0 {
				app.Logger.Warn("no hook modules discovered, skipping manifest", "root", rootDir)
				return nil
			}

			doc, err := buildManifest(app, result, imageRef, baseRef, commitRef)
			if err != nil {
				return commandError(app, cmd, "Error", err)
			}

			if err := installHooks(app, result, hooksDir); err != nil {
				return commandError(app, cmd, "Error", err)
			}

			if err := manifest.Write(doc, manifestPath, app.Logger); err != nil {
				return commandError(app, cmd, "Error", err)
			}
			app.Logger.Info("manifest written", "path", manifestPath, "hooks", len(doc.Hooks))

			return nil
		},
	}

	buildCmd.Flags().StringVar(&rootDir, "root", "", "modules root directory (default from config)")
	buildCmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest output path (default from config)")
	buildCmd.Flags().StringVar(&runtimeMode, "runtime", "", "execution runtime: native or virtual (default from config)")
	buildCmd.Flags().StringVar(&imageRef, "image", "", "image reference being built (default from config)")
	buildCmd.Flags().StringVar(&baseRef, "base", "", "base image reference (default from config)")
	buildCmd.Flags().StringVar(&commitRef, "commit", "unknown", "source commit the build was produced from")
	buildCmd.Flags().StringVar(&hooksDir, "hooks-dir", "", "directory hook entrypoints are installed into (default from config)")
	buildCmd.Flags().BoolVar(&skipManifest, "skip-manifest", false, "execute modules without writing a manifest")

	return buildCmd
}

// buildManifest computes hook versions, stamps placeholders, and
// assembles the manifest document.
func buildManifest(app *App, result *discovery.Result, image, base, commit string) (manifest.Document, error) {
	doc := manifest.New(image, base, commit)

	for _, hook := range result.Hooks() {
		version, err := hash.Compute(hook.HashInputs())
		if err != nil {
			return manifest.Document{}, fmt.Errorf("hook %s: %w", hook.Name, err)
		}

		replaced, err := hash.Stamp(hook.ExecutablePath(), version)
		if err != nil {
			return manifest.Document{}, fmt.Errorf("hook %s: %w", hook.Name, err)
		}
		if replaced == 0 {
			app.Logger.Warn("hook entrypoint has no version placeholder",
				"hook", hook.Name, "token", hash.PlaceholderToken)
		}
		app.Logger.Debug("hook versioned", "hook", hook.Name, "version", version, "stamped", replaced)

		deps := hook.HashInputs()
		doc, err = manifest.AddHook(doc, hook.Name, version, deps, hook.Metadata)
		if err != nil {
			return manifest.Document{}, err
		}
	}

	return doc, nil
}

// installHooks copies each stamped hook entrypoint into the hooks
// directory, where the first-boot machinery picks them up.
func installHooks(app *App, result *discovery.Result, hooksDir string) error {
	hooks := result.Hooks()
	if hooksDir == "" || len(hooks) == 0 {
		return nil
	}

	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	for _, hook := range hooks {
		data, err := os.ReadFile(hook.ExecutablePath())
		if err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name, err)
		}
		dest := filepath.Join(hooksDir, hook.Name)
		if err := os.WriteFile(dest, data, 0o755); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name, err)
		}
		app.Logger.Debug("hook installed", "hook", hook.Name, "path", dest)
	}
	app.Logger.Info("hooks installed", "dir", hooksDir, "count", len(hooks))

	return nil
}

// printSummary renders the per-module execution summary.
func printSummary(app *App, summary *orchestrator.Summary) {
	if summary == nil || len(summary.Results) == 0 {
		return
	}

	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, TitleStyle.Render("Build Summary"))
	for _, res := range summary.Results {
		var status string
		switch res.Status {
		case orchestrator.StatusSuccess:
			status = SuccessStyle.Render("ok      ")
		case orchestrator.StatusSkipped:
			status = WarningStyle.Render("skipped ")
		case orchestrator.StatusFailure:
			status = ErrorStyle.Render("failed  ")
		}
		fmt.Fprintf(app.stdout, "  %s %s %s %s\n",
			status,
			SubtitleStyle.Render(string(res.Category)),
			ModuleStyle.Render(res.Name),
			VerboseStyle.Render(res.Duration.Round(time.Millisecond).String()))
	}
	fmt.Fprintf(app.stdout, "\n  %d succeeded, %d skipped, %d failed in %s\n",
		summary.Succeeded, summary.Skipped, summary.Failed,
		summary.Elapsed.Round(time.Millisecond))
}
