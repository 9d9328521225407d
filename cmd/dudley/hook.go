// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"dudley/internal/gate"
	"dudley/internal/runtime"
)

// newHookCommand creates the `dudley hook` command tree, the runtime
// version gate consumed by installed first-boot hooks.
func newHookCommand(app *App) *cobra.Command {
	hookCmd := &cobra.Command{
		Use:   "hook",
		Short: "First-boot hook version gate",
		Long: `First-boot hook version gate.

Each hook records the content version it last ran at under the state
directory. On boot the hook asks the gate whether its current version
differs from the recorded one:

  dudley hook gate my-hook --version abc12345 && run-payload \
    && dudley hook commit my-hook abc12345

Or, letting the gate drive the payload and commit on success:

  dudley hook gate my-hook --version abc12345 -- /usr/libexec/payload.sh

The recorded version is only updated after the payload succeeds, so a
failed hook runs again on the next boot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	hookCmd.AddCommand(newHookGateCommand(app))
	hookCmd.AddCommand(newHookCommitCommand(app))
	hookCmd.AddCommand(newHookStatusCommand(app))

	return hookCmd
}

func newHookGateCommand(app *App) *cobra.Command {
	var (
		version  string
		stateDir string
	)

	gateCmd := &cobra.Command{
		Use:   "gate <name> [-- payload args...]",
		Short: "Decide whether a hook should run at its current version",
		Long: `Decide whether a hook should run at its current version.

Without a payload, exits 0 when the hook should run and 2 when the
recorded version matches and the hook should be skipped.

With a payload after --, runs it when the gate decides to run, and
commits the version only if the payload exits successfully.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			g, err := newGate(cmd.Context(), app, stateDir)
			if err != nil {
				return err
			}

			payload := payloadArgs(cmd, args)
			if len(payload) == 0 {
				decision, decErr := g.Decide(name, version)
				if decErr != nil {
					return commandError(app, cmd, "Error", decErr)
				}
				app.Logger.Debug("gate decision", "hook", name, "version", version, "decision", decision)
				if decision == gate.DecisionSkip {
					return silentExit(cmd, runtime.ExitSkip)
				}
				return nil
			}

			decision, runErr := g.Run(cmd.Context(), name, version, func(ctx context.Context) error {
				payloadCmd := exec.CommandContext(ctx, payload[0], payload[1:]...)
				payloadCmd.Stdout = app.stdout
				payloadCmd.Stderr = app.stderr
				return payloadCmd.Run()
			})
			if runErr != nil {
				return commandError(app, cmd, "Error", runErr)
			}
			if decision == gate.DecisionSkip {
				app.Logger.Info("hook up to date, skipping", "hook", name, "version", version)
			}
			return nil
		},
	}

	gateCmd.Flags().StringVar(&version, "version", "", "current 8-char content version")
	gateCmd.Flags().StringVar(&stateDir, "state-dir", "", "state directory (default from config)")
	_ = gateCmd.MarkFlagRequired("version")

	return gateCmd
}

func newHookCommitCommand(app *App) *cobra.Command {
	var stateDir string

	commitCmd := &cobra.Command{
		Use:   "commit <name> <version>",
		Short: "Record the version a hook just ran at",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, version := args[0], args[1]

			g, err := newGate(cmd.Context(), app, stateDir)
			if err != nil {
				return err
			}
			if err := g.Commit(name, version); err != nil {
				return commandError(app, cmd, "Error", err)
			}
			app.Logger.Debug("hook version recorded", "hook", name, "version", version)
			return nil
		},
	}

	commitCmd.Flags().StringVar(&stateDir, "state-dir", "", "state directory (default from config)")

	return commitCmd
}

func newHookStatusCommand(app *App) *cobra.Command {
	var stateDir string

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List recorded hook versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveStateDir(cmd.Context(), app, stateDir)
			if err != nil {
				return err
			}

			entries, err := os.ReadDir(dir)
			if os.IsNotExist(err) {
				fmt.Fprintln(app.stdout, "no hook versions recorded")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read state dir: %w", err)
			}

			store, err := gate.NewStore(dir)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
					continue
				}
				names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
			}
			sort.Strings(names)

			if len(names) == 0 {
				fmt.Fprintln(app.stdout, "no hook versions recorded")
				return nil
			}
			for _, name := range names {
				version, ok, getErr := store.Get(name)
				if getErr != nil || !ok {
					fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("????????"), name)
					continue
				}
				fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render(version), ModuleStyle.Render(name))
			}
			return nil
		},
	}

	statusCmd.Flags().StringVar(&stateDir, "state-dir", "", "state directory (default from config)")

	return statusCmd
}

// resolveStateDir picks the state directory: explicit flag first, then
// the configured state_dir, then the built-in default. The config load
// is skipped entirely when the flag is set, so a broken config file
// cannot stop a hook that names its state dir.
func resolveStateDir(ctx context.Context, app *App, stateDir string) (string, error) {
	if stateDir != "" {
		return filepath.Clean(stateDir), nil
	}
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return "", err
	}
	if cfg.StateDir != "" {
		return filepath.Clean(cfg.StateDir), nil
	}
	return gate.DefaultStateDir, nil
}

// newGate builds a Gate over the resolved state directory.
func newGate(ctx context.Context, app *App, stateDir string) (*gate.Gate, error) {
	dir, err := resolveStateDir(ctx, app, stateDir)
	if err != nil {
		return nil, err
	}
	store, err := gate.NewStore(dir)
	if err != nil {
		return nil, err
	}
	return gate.New(store), nil
}

// payloadArgs returns the arguments following the -- separator, if any.
func payloadArgs(cmd *cobra.Command, args []string) []string {
	at := cmd.ArgsLenAtDash()
	if at < 0 || at >= len(args) {
		return nil
	}
	return args[at:]
}
