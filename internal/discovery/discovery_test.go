// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dudley/internal/module"
)

// writeModuleDir creates <root>/<category>/<name>/ with metadata and a
// stub entrypoint.
func writeModuleDir(t *testing.T, root string, category module.Category, name, metadata string) string {
	t.Helper()
	dir := filepath.Join(root, category.String(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create module dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, module.MetadataFileName), []byte(metadata), 0o644); err != nil {
		t.Fatalf("failed to write metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/usr/bin/env bash\n"), 0o755); err != nil {
		t.Fatalf("failed to write entrypoint: %v", err)
	}
	return dir
}

func TestDiscoverAll_GroupsAndSorts(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeModuleDir(t, root, module.CategoryDesktop, "zz-wallpaper", "")
	writeModuleDir(t, root, module.CategoryDesktop, "aa-fonts", "")
	writeModuleDir(t, root, module.CategoryUserHooks, "vscode", "")

	result, err := New(root).DiscoverAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Count() != 3 {
		t.Errorf("discovered %d modules, want 3", result.Count())
	}

	desktop := result.Modules[module.CategoryDesktop]
	if len(desktop) != 2 || desktop[0].Name != "aa-fonts" || desktop[1].Name != "zz-wallpaper" {
		t.Errorf("desktop modules not sorted by name: %v", desktop)
	}

	hooks := result.Hooks()
	if len(hooks) != 1 || hooks[0].Name != "vscode" {
		t.Errorf("hooks = %v", hooks)
	}
}

func TestDiscoverAll_MissingCategoriesAllowed(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeModuleDir(t, root, module.CategorySharedUtilities, "env", "")

	result, err := New(root).DiscoverAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count() != 1 {
		t.Errorf("discovered %d modules, want 1", result.Count())
	}
}

func TestDiscoverAll_IgnoresNonModuleDirs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeModuleDir(t, root, module.CategoryDesktop, "real", "")
	// A directory without module.cue is not a module.
	if err := os.MkdirAll(filepath.Join(root, "desktop", "assets"), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	result, err := New(root).DiscoverAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count() != 1 {
		t.Errorf("discovered %d modules, want 1", result.Count())
	}
}

func TestDiscoverAll_NameCollision(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeModuleDir(t, root, module.CategoryDesktop, "one", `name: "shared"`)
	writeModuleDir(t, root, module.CategoryDesktop, "two", `name: "shared"`)

	_, err := New(root).DiscoverAll()
	var collision *NameCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("expected NameCollisionError, got %v", err)
	}
	if collision.Name != "shared" {
		t.Errorf("collision names %q, want shared", collision.Name)
	}
}

func TestDiscoverAll_MissingRoot(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "nope")).DiscoverAll()
	if err == nil {
		t.Error("expected an error for a missing build root")
	}
}

func TestResult_Get(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeModuleDir(t, root, module.CategoryDeveloperTools, "golang", "")

	result, err := New(root).DiscoverAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Get(module.CategoryDeveloperTools, "golang") == nil {
		t.Error("expected to find module golang")
	}
	if result.Get(module.CategoryDeveloperTools, "rustlang") != nil {
		t.Error("expected nil for an unknown module")
	}
}
