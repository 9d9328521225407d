// SPDX-License-Identifier: MPL-2.0

// Package diskcfg loads and validates bootc-image-builder disk
// configuration files (disk_config/iso.toml and disk_config/disk.toml).
package diskcfg

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"dudley/internal/issue"
)

const (
	// DefaultISOPath is the conventional location of the installer ISO config.
	DefaultISOPath = "disk_config/iso.toml"
	// DefaultDiskPath is the conventional location of the disk image config.
	DefaultDiskPath = "disk_config/disk.toml"
)

var (
	// ErrInvalidDiskConfig is the sentinel wrapped by validation failures.
	ErrInvalidDiskConfig = errors.New("invalid disk config")
)

type (
	// Config mirrors the bootc-image-builder configuration format.
	Config struct {
		Customizations Customizations `toml:"customizations"`
	}

	// Customizations holds the supported customization sections.
	Customizations struct {
		Users       []User       `toml:"user"`
		Filesystems []Filesystem `toml:"filesystem"`
		Kernel      *Kernel      `toml:"kernel"`
		Installer   *Installer   `toml:"installer"`
	}

	// User describes an account created in the built image.
	User struct {
		Name     string   `toml:"name"`
		Password string   `toml:"password"`
		Key      string   `toml:"key"`
		Groups   []string `toml:"groups"`
	}

	// Filesystem describes a mountpoint sizing constraint.
	Filesystem struct {
		Mountpoint string `toml:"mountpoint"`
		MinSize    string `toml:"minsize"`
	}

	// Kernel holds kernel command line customizations.
	Kernel struct {
		Append string `toml:"append"`
	}

	// Installer holds Anaconda installer customizations (ISO builds only).
	Installer struct {
		Kickstart *Kickstart        `toml:"kickstart"`
		Modules   *InstallerModules `toml:"modules"`
	}

	// Kickstart carries inline kickstart content.
	Kickstart struct {
		Contents string `toml:"contents"`
	}

	// InstallerModules toggles Anaconda modules.
	InstallerModules struct {
		Enable  []string `toml:"enable"`
		Disable []string `toml:"disable"`
	}
)

// Load reads and parses a disk config file, then validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.ContextFor("load disk config", path).
			WithSuggestion("Check that the file exists under disk_config/").
			Wrap(err).
			BuildError()
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, issue.ContextFor("parse disk config", path).
			WithSuggestion("Check the TOML syntax near the line named in the error").
			WithSuggestion("Compare against the bootc-image-builder customizations format").
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

// Parse decodes and validates disk config TOML content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d, column %d: %s", row, col, derr.Error())
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks constraints the TOML decoder cannot express.
func (c *Config) Validate() error {
	seenMounts := make(map[string]bool)
	for i, fs := range c.Customizations.Filesystems {
		if !strings.HasPrefix(fs.Mountpoint, "/") {
			return fmt.Errorf("%w: filesystem[%d]: mountpoint %q must be absolute",
				ErrInvalidDiskConfig, i, fs.Mountpoint)
		}
		if seenMounts[fs.Mountpoint] {
			return fmt.Errorf("%w: filesystem[%d]: duplicate mountpoint %q",
				ErrInvalidDiskConfig, i, fs.Mountpoint)
		}
		seenMounts[fs.Mountpoint] = true
		if strings.TrimSpace(fs.MinSize) == "" {
			return fmt.Errorf("%w: filesystem[%d]: minsize must not be empty",
				ErrInvalidDiskConfig, i)
		}
	}

	seenUsers := make(map[string]bool)
	for i, u := range c.Customizations.Users {
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("%w: user[%d]: name must not be empty", ErrInvalidDiskConfig, i)
		}
		if seenUsers[u.Name] {
			return fmt.Errorf("%w: user[%d]: duplicate user %q", ErrInvalidDiskConfig, i, u.Name)
		}
		seenUsers[u.Name] = true
	}

	return nil
}

// HasInstallerSection reports whether the config carries installer
// customizations, which only apply to ISO builds.
func (c *Config) HasInstallerSection() bool {
	return c.Customizations.Installer != nil
}

// Summary renders a short human-readable description of the config.
func (c *Config) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "users: %d\n", len(c.Customizations.Users))
	for _, u := range c.Customizations.Users {
		fmt.Fprintf(&sb, "  - %s", u.Name)
		if len(u.Groups) > 0 {
			fmt.Fprintf(&sb, " (groups: %s)", strings.Join(u.Groups, ", "))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "filesystems: %d\n", len(c.Customizations.Filesystems))
	for _, fs := range c.Customizations.Filesystems {
		fmt.Fprintf(&sb, "  - %s (minsize %s)\n", fs.Mountpoint, fs.MinSize)
	}

	if c.Customizations.Kernel != nil && c.Customizations.Kernel.Append != "" {
		fmt.Fprintf(&sb, "kernel append: %s\n", c.Customizations.Kernel.Append)
	}
	if c.HasInstallerSection() {
		sb.WriteString("installer customizations: yes\n")
	}

	return sb.String()
}
