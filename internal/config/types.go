// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// RuntimeMode selects how module entrypoints are executed.
	RuntimeMode string

	// ColorScheme controls terminal color output.
	ColorScheme string

	// Config holds the resolved dudley configuration.
	Config struct {
		// ModulesRoot is the directory holding the category/module tree.
		ModulesRoot string `mapstructure:"modules_root"`

		// ManifestPath is the destination for the generated build manifest.
		ManifestPath string `mapstructure:"manifest_path"`

		// StateDir holds per-hook version records.
		StateDir string `mapstructure:"state_dir"`

		// HooksInstallDir is where hook modules are installed inside the image.
		HooksInstallDir string `mapstructure:"hooks_install_dir"`

		// DefaultRuntime selects the execution runtime for entrypoints.
		DefaultRuntime RuntimeMode `mapstructure:"default_runtime"`

		// Jobs caps how many parallel-safe modules run at once.
		// 0 means one goroutine per module in the wave.
		Jobs int `mapstructure:"jobs"`

		Build BuildConfig `mapstructure:"build"`
		UI    UIConfig    `mapstructure:"ui"`
	}

	// BuildConfig identifies the images involved in a build.
	BuildConfig struct {
		// Image is the reference the build publishes.
		Image string `mapstructure:"image"`
		// Base is the reference the build starts from.
		Base string `mapstructure:"base"`
	}

	// UIConfig controls terminal output behavior.
	UIConfig struct {
		ColorScheme ColorScheme `mapstructure:"color_scheme"`
		Verbose     bool        `mapstructure:"verbose"`
	}
)

const (
	// RuntimeNative runs entrypoints in the host system shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs entrypoints in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPath is returned when a required path setting is empty or whitespace.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidJobs is returned when jobs is negative.
	ErrInvalidJobs = errors.New("invalid jobs value")
)

// DefaultConfig returns the built-in defaults used when no config file
// is present. Paths follow the image layout the build scripts expect.
func DefaultConfig() *Config {
	return &Config{
		ModulesRoot:     "/usr/share/dudley/build_files",
		ManifestPath:    "/etc/dudley/build-manifest.json",
		StateDir:        "/var/lib/dudley/hook-versions",
		HooksInstallDir: "/usr/share/ublue-os/user-setup.hooks.d",
		DefaultRuntime:  RuntimeNative,
		Jobs:            0,
		Build: BuildConfig{
			Image: "dudleys-second-bedroom",
			Base:  "ghcr.io/ublue-os/bluefin-dx:latest",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

// Validate checks a RuntimeMode value.
func (m RuntimeMode) Validate() error {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: native, virtual)", ErrInvalidRuntimeMode, string(m))
	}
}

// Validate checks a ColorScheme value.
func (s ColorScheme) Validate() error {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: auto, dark, light)", ErrInvalidColorScheme, string(s))
	}
}

// Validate checks constraints the CUE schema cannot express on the
// merged configuration, such as whitespace-only paths surviving the
// viper merge.
func (c *Config) Validate() error {
	for _, p := range []struct {
		field string
		value string
	}{
		{"modules_root", c.ModulesRoot},
		{"manifest_path", c.ManifestPath},
		{"state_dir", c.StateDir},
		{"hooks_install_dir", c.HooksInstallDir},
	} {
		if strings.TrimSpace(p.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidPath, p.field)
		}
	}

	if err := c.DefaultRuntime.Validate(); err != nil {
		return err
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidJobs, c.Jobs)
	}

	return nil
}
