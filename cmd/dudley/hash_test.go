// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestHashCommand_ComputesVersion(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(file, []byte("echo hello\n"), 0o755); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	app, stdout, _ := testApp()
	if err := runCLI(app, "hash", file); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := strings.TrimSpace(stdout.String())
	if !hexPattern.MatchString(got) {
		t.Errorf("hash output = %q, want 8 lowercase hex chars", got)
	}
}

func TestHashCommand_MissingFile(t *testing.T) {
	app, _, _ := testApp()
	err := runCLI(app, "hash", filepath.Join(t.TempDir(), "missing.sh"))
	if exitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1", exitCode(err))
	}
}

func TestHashStampCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hook.sh")
	if err := os.WriteFile(file, []byte("VERSION=__DUDLEY_VERSION__\n"), 0o755); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	app, _, _ := testApp()
	if err := runCLI(app, "hash", "stamp", file, "abc12345"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "VERSION=abc12345\n" {
		t.Errorf("stamped content = %q", data)
	}
}

func TestHashStampCommand_NoPlaceholderWarnsButSucceeds(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hook.sh")
	if err := os.WriteFile(file, []byte("echo no placeholder\n"), 0o755); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	app, _, stderr := testApp()
	if err := runCLI(app, "hash", "stamp", file, "abc12345"); err != nil {
		t.Fatalf("missing placeholder should not be an error, got %v", err)
	}
	if !strings.Contains(stderr.String(), "placeholder") {
		t.Error("expected a warning about the missing placeholder")
	}
}

func TestHashStampCommand_BadHash(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hook.sh")
	if err := os.WriteFile(file, []byte("VERSION=__DUDLEY_VERSION__\n"), 0o755); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	app, _, _ := testApp()
	err := runCLI(app, "hash", "stamp", file, "NOTAHASH")
	if exitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1 for invalid hash format", exitCode(err))
	}

	// File must be untouched after a rejected stamp.
	data, readErr := os.ReadFile(file)
	if readErr != nil {
		t.Fatalf("failed to read file: %v", readErr)
	}
	if !strings.Contains(string(data), "__DUDLEY_VERSION__") {
		t.Error("file was modified despite invalid hash")
	}
}
