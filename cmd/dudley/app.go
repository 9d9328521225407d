// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"dudley/internal/config"
	"dudley/internal/runtime"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and delegate through its services.
	App struct {
		Config config.Provider
		Logger *log.Logger
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App.
	// Nil fields are replaced with production defaults by NewApp. Tests
	// can supply replacements to isolate specific behavior.
	Dependencies struct {
		Config config.Provider
		Logger *log.Logger
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp builds the CLI composition root, filling nil dependencies with
// production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Logger: deps.Logger,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.Logger == nil {
		app.Logger = log.NewWithOptions(app.stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "dudley",
		})
	}
	return app
}

// loadConfig resolves configuration, honoring the global --config flag.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}
	if verbose {
		a.Logger.SetLevel(log.DebugLevel)
	} else if cfg.UI.Verbose {
		verbose = true
		a.Logger.SetLevel(log.DebugLevel)
	}
	applyColorScheme(cfg.UI.ColorScheme)
	return cfg, nil
}

// newRuntime selects the execution runtime for module entrypoints.
func (a *App) newRuntime(mode config.RuntimeMode) (runtime.Runtime, error) {
	switch mode {
	case config.RuntimeVirtual:
		return runtime.NewVirtualRuntime(), nil
	case config.RuntimeNative, "":
		rt := runtime.NewNativeRuntime()
		if !rt.Available() {
			// No host shell; the embedded interpreter always works.
			a.Logger.Warn("no host shell found, falling back to the embedded interpreter")
			return runtime.NewVirtualRuntime(), nil
		}
		return rt, nil
	default:
		return nil, fmt.Errorf("unknown runtime %q", mode)
	}
}
