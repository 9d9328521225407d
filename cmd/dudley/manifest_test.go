// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManifestWorkflow(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "working.json")
	final := filepath.Join(dir, "build-manifest.json")

	app, _, _ := testApp()
	if err := runCLI(app, "manifest", "init",
		"--image", "ghcr.io/example/image:latest",
		"--base", "ghcr.io/ublue-os/bluefin-dx:latest",
		"--commit", "deadbeef",
		"-f", working); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	app, _, _ = testApp()
	if err := runCLI(app, "manifest", "add-hook", "install-fonts",
		"--version", "abc12345",
		"--dep", "run.sh",
		"--dep", "fonts.list",
		"--meta", "category=user-hooks",
		"-f", working); err != nil {
		t.Fatalf("add-hook failed: %v", err)
	}

	app, _, _ = testApp()
	if err := runCLI(app, "manifest", "write", "-f", working, "-o", final); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("final manifest not written: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("final manifest is not valid JSON: %v", err)
	}
	hooks, ok := doc["hooks"].(map[string]any)
	if !ok || len(hooks) != 1 {
		t.Fatalf("hooks = %v", doc["hooks"])
	}
	if _, ok := hooks["install-fonts"]; !ok {
		t.Error("install-fonts hook missing from final manifest")
	}
}

func TestManifestAddHook_RejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "working.json")

	app, _, _ := testApp()
	if err := runCLI(app, "manifest", "init",
		"--image", "img", "--base", "base", "-f", working); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	app, _, _ = testApp()
	err := runCLI(app, "manifest", "add-hook", "broken",
		"--version", "NOTHEX!!",
		"--dep", "run.sh",
		"-f", working)
	if exitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1 for invalid version", exitCode(err))
	}
}

func TestManifestWrite_ValidationFailureLeavesDestinationUntouched(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "working.json")
	final := filepath.Join(dir, "final.json")

	// A manifest with no hooks fails schema validation.
	app, _, _ := testApp()
	if err := runCLI(app, "manifest", "init",
		"--image", "img", "--base", "base", "-f", working); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := os.WriteFile(final, []byte("previous contents"), 0o644); err != nil {
		t.Fatalf("failed to seed destination: %v", err)
	}

	app, _, _ = testApp()
	err := runCLI(app, "manifest", "write", "-f", working, "-o", final)
	if exitCode(err) != 1 {
		t.Fatalf("expected validation failure, got %v", err)
	}

	data, readErr := os.ReadFile(final)
	if readErr != nil {
		t.Fatalf("failed to read destination: %v", readErr)
	}
	if string(data) != "previous contents" {
		t.Error("destination was modified despite validation failure")
	}
}

func TestManifestShow_JSON(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "working.json")

	app, _, _ := testApp()
	if err := runCLI(app, "manifest", "init",
		"--image", "ghcr.io/example/image:latest", "--base", "base", "-f", working); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	app, stdout, _ := testApp()
	if err := runCLI(app, "manifest", "show", "-f", working, "--json"); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "ghcr.io/example/image:latest") {
		t.Errorf("show --json output missing image ref:\n%s", stdout.String())
	}
}
