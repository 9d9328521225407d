// SPDX-License-Identifier: MPL-2.0

package diskcfg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const isoConfig = `
[[customizations.user]]
name = "dudley"
password = "changeme"
groups = ["wheel"]

[[customizations.filesystem]]
mountpoint = "/"
minsize = "20 GiB"

[[customizations.filesystem]]
mountpoint = "/var"
minsize = "10 GiB"

[customizations.kernel]
append = "quiet splash"

[customizations.installer.kickstart]
contents = """
%post
echo installed
%end
"""

[customizations.installer.modules]
enable = ["org.fedoraproject.Anaconda.Modules.Storage"]
`

const diskConfig = `
[[customizations.filesystem]]
mountpoint = "/"
minsize = "10 GiB"
`

func TestParse_FullISOConfig(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(isoConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Customizations.Users) != 1 {
		t.Fatalf("users = %d, want 1", len(cfg.Customizations.Users))
	}
	u := cfg.Customizations.Users[0]
	if u.Name != "dudley" || len(u.Groups) != 1 || u.Groups[0] != "wheel" {
		t.Errorf("user = %+v", u)
	}

	if len(cfg.Customizations.Filesystems) != 2 {
		t.Errorf("filesystems = %d, want 2", len(cfg.Customizations.Filesystems))
	}
	if cfg.Customizations.Kernel == nil || cfg.Customizations.Kernel.Append != "quiet splash" {
		t.Errorf("kernel = %+v", cfg.Customizations.Kernel)
	}
	if !cfg.HasInstallerSection() {
		t.Error("installer section should be detected")
	}
	if !strings.Contains(cfg.Customizations.Installer.Kickstart.Contents, "%post") {
		t.Error("kickstart contents not preserved")
	}
	if got := cfg.Customizations.Installer.Modules.Enable; len(got) != 1 {
		t.Errorf("installer modules enable = %v", got)
	}
}

func TestParse_MinimalDiskConfig(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(diskConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HasInstallerSection() {
		t.Error("disk config should have no installer section")
	}
}

func TestParse_SyntaxErrorNamesLine(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("[[customizations.user]\nname = \"x\"\n"))
	if err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestParse_ValidationFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "relative mountpoint",
			content: `[[customizations.filesystem]]
mountpoint = "var"
minsize = "1 GiB"`,
		},
		{
			name: "duplicate mountpoint",
			content: `[[customizations.filesystem]]
mountpoint = "/"
minsize = "1 GiB"
[[customizations.filesystem]]
mountpoint = "/"
minsize = "2 GiB"`,
		},
		{
			name: "empty minsize",
			content: `[[customizations.filesystem]]
mountpoint = "/"
minsize = ""`,
		},
		{
			name: "empty user name",
			content: `[[customizations.user]]
name = ""`,
		},
		{
			name: "duplicate user",
			content: `[[customizations.user]]
name = "dudley"
[[customizations.user]]
name = "dudley"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.content))
			if !errors.Is(err, ErrInvalidDiskConfig) {
				t.Errorf("Parse() error = %v, want ErrInvalidDiskConfig", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "iso.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "disk.toml")
	if err := os.WriteFile(path, []byte(diskConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Customizations.Filesystems) != 1 {
		t.Errorf("filesystems = %d, want 1", len(cfg.Customizations.Filesystems))
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(isoConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := cfg.Summary()
	for _, want := range []string{"dudley", "/var", "quiet splash", "installer customizations: yes"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}
}
