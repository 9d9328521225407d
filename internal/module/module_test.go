// SPDX-License-Identifier: MPL-2.0

package module

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// writeModule creates a module directory with the given metadata and a
// stub entrypoint, returning the directory path.
func writeModule(t *testing.T, root, name, metadata string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create module dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFileName), []byte(metadata), 0o644); err != nil {
		t.Fatalf("failed to write metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/usr/bin/env bash\n"), 0o755); err != nil {
		t.Fatalf("failed to write entrypoint: %v", err)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeModule(t, root, "install-fonts", "")

	m, err := Load(dir, CategoryDesktop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "install-fonts" {
		t.Errorf("name defaulted to %q, want directory name", m.Name)
	}
	if m.Entrypoint != "run.sh" {
		t.Errorf("entrypoint defaulted to %q, want run.sh", m.Entrypoint)
	}
	if m.ParallelSafe {
		t.Error("parallel_safe must default to false")
	}
	if len(m.DependsOn) != 0 {
		t.Errorf("depends_on must default to empty, got %v", m.DependsOn)
	}
	if m.Category != CategoryDesktop {
		t.Errorf("category = %q, want desktop", m.Category)
	}
}

func TestLoad_FullMetadata(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	meta := `
name: "vscode-setup"
description: "installs vscode extensions on first boot"
depends_on: ["shared-env"]
parallel_safe: true
hash_deps: ["extensions.json"]
metadata: {flavor: "dx"}
`
	dir := writeModule(t, root, "vscode", meta)
	if err := os.WriteFile(filepath.Join(dir, "extensions.json"), []byte("[]"), 0o644); err != nil {
		t.Fatalf("failed to write hash dep: %v", err)
	}

	m, err := Load(dir, CategoryUserHooks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "vscode-setup" {
		t.Errorf("name = %q, want vscode-setup", m.Name)
	}
	if !slices.Equal(m.DependsOn, []string{"shared-env"}) {
		t.Errorf("depends_on = %v", m.DependsOn)
	}
	if !m.ParallelSafe {
		t.Error("parallel_safe should be true")
	}
	if !m.IsHook() {
		t.Error("user-hooks module should report IsHook")
	}
	if m.Metadata["flavor"] != "dx" {
		t.Errorf("metadata = %v", m.Metadata)
	}

	inputs := m.HashInputs()
	if len(inputs) != 2 {
		t.Fatalf("expected 2 hash inputs, got %v", inputs)
	}
	if inputs[0] != m.ExecutablePath() {
		t.Errorf("first hash input should be the entrypoint, got %q", inputs[0])
	}
	if !strings.HasSuffix(inputs[1], "extensions.json") {
		t.Errorf("second hash input = %q", inputs[1])
	}
}

func TestLoad_MissingEntrypoint(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeModule(t, root, "broken", `entrypoint: "missing.sh"`)

	if _, err := Load(dir, CategoryDesktop); err == nil {
		t.Error("expected an error for a missing entrypoint")
	}
}

func TestLoad_InvalidName(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeModule(t, root, "mod", `name: "has spaces"`)

	if _, err := Load(dir, CategoryDesktop); err == nil {
		t.Error("expected an error for an invalid module name")
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := writeModule(t, root, "mod", `depends_on: "not-a-list"`)

	if _, err := Load(dir, CategoryDesktop); err == nil {
		t.Error("expected a schema error for a non-list depends_on")
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		if err != nil {
			t.Errorf("ParseCategory(%q): %v", c, err)
		}
		if got != c {
			t.Errorf("ParseCategory(%q) = %q", c, got)
		}
	}
	if _, err := ParseCategory("gaming"); err == nil {
		t.Error("expected an error for an unknown category")
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()
	valid := []string{"a", "vscode-setup", "mod_01", "X9"}
	invalid := []string{"", "-leading", "_leading", "has space", "dot.name"}
	for _, s := range valid {
		if !ValidName(s) {
			t.Errorf("ValidName(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if ValidName(s) {
			t.Errorf("ValidName(%q) = true, want false", s)
		}
	}
}
