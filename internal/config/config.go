// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"dudley/internal/issue"
	"dudley/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "dudley"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// SystemConfigDir is the system-wide configuration directory.
	SystemConfigDir = "/etc/dudley"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the user configuration directory, following
// $XDG_CONFIG_HOME with a ~/.config fallback.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("modules_root", defaults.ModulesRoot)
	v.SetDefault("manifest_path", defaults.ManifestPath)
	v.SetDefault("state_dir", defaults.StateDir)
	v.SetDefault("hooks_install_dir", defaults.HooksInstallDir)
	v.SetDefault("default_runtime", string(defaults.DefaultRuntime))
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("build.image", defaults.Build.Image)
	v.SetDefault("build.base", defaults.Build.Base)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	resolvedPath := ""

	// If a custom config file path is set via --config, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.ContextFor("load configuration", opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", issue.ContextFor("load configuration", opts.ConfigFilePath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		// Search order: system config, then user config.
		candidates := []string{
			filepath.Join(systemDirWithOverride(opts.SystemDirPath), ConfigFileName+"."+ConfigFileExt),
		}

		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err == nil {
			candidates = append(candidates, filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt))
		}

		for _, cuePath := range candidates {
			if !fileExists(cuePath) {
				continue
			}
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", issue.ContextFor("load configuration", cuePath).
					WithSuggestion("Check that the file contains valid CUE syntax").
					WithSuggestion("Verify the configuration values match the expected schema").
					Wrap(err).
					BuildError()
			}
			resolvedPath = cuePath
			break
		}
		// If no config file found, use defaults (no error)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.ContextFor("validate configuration", resolvedPath).
			WithSuggestion("Check path settings for empty or whitespace-only values").
			WithSuggestion("Valid runtimes are 'native' and 'virtual'").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the user configuration directory,
// honoring explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// systemDirWithOverride resolves the system configuration directory.
func systemDirWithOverride(systemDirPath string) string {
	if systemDirPath != "" {
		return systemDirPath
	}
	return SystemConfigDir
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: This uses manual CUE parsing instead of cueutil.ParseAndDecode because:
// 1. Config decodes to map[string]any (not a struct) for Viper integration
// 2. Uses Concrete(false) because config fields are optional
// 3. Needs to merge into Viper's config map, not return a struct
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	// Unify with schema to validate against #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the user config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// Save writes the configuration to the user config file
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	cueContent := GenerateCUE(cfg)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Dudley Configuration File\n\n")

	sb.WriteString(fmt.Sprintf("modules_root: %q\n", cfg.ModulesRoot))
	sb.WriteString(fmt.Sprintf("manifest_path: %q\n", cfg.ManifestPath))
	sb.WriteString(fmt.Sprintf("state_dir: %q\n", cfg.StateDir))
	sb.WriteString(fmt.Sprintf("hooks_install_dir: %q\n", cfg.HooksInstallDir))
	sb.WriteString(fmt.Sprintf("default_runtime: %q\n", cfg.DefaultRuntime))
	if cfg.Jobs != 0 {
		sb.WriteString(fmt.Sprintf("jobs: %d\n", cfg.Jobs))
	}

	sb.WriteString("\nbuild: {\n")
	if cfg.Build.Image != "" {
		sb.WriteString(fmt.Sprintf("\timage: %q\n", cfg.Build.Image))
	}
	if cfg.Build.Base != "" {
		sb.WriteString(fmt.Sprintf("\tbase: %q\n", cfg.Build.Base))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	return sb.String()
}
