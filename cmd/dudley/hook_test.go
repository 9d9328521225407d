// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dudley/internal/runtime"
)

func TestHookGate_FirstRunThenSkip(t *testing.T) {
	stateDir := t.TempDir()

	// First boot: no record, gate says run (exit 0).
	app, _, _ := testApp()
	if err := runCLI(app, "hook", "gate", "install-fonts", "--version", "abc12345", "--state-dir", stateDir); err != nil {
		t.Fatalf("first gate check should allow the run, got %v", err)
	}

	// Payload ran, hook commits.
	app, _, _ = testApp()
	if err := runCLI(app, "hook", "commit", "install-fonts", "abc12345", "--state-dir", stateDir); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	// Next boot, same version: skip (exit 2).
	app, _, _ = testApp()
	err := runCLI(app, "hook", "gate", "install-fonts", "--version", "abc12345", "--state-dir", stateDir)
	if exitCode(err) != int(runtime.ExitSkip) {
		t.Errorf("exit code = %d, want %d (skip)", exitCode(err), runtime.ExitSkip)
	}

	// Content changed: run again.
	app, _, _ = testApp()
	if err := runCLI(app, "hook", "gate", "install-fonts", "--version", "def67890", "--state-dir", stateDir); err != nil {
		t.Errorf("changed version should run, got %v", err)
	}
}

func TestHookGate_InvalidVersion(t *testing.T) {
	app, _, _ := testApp()
	err := runCLI(app, "hook", "gate", "install-fonts", "--version", "NOPE", "--state-dir", t.TempDir())
	if exitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1 for invalid version", exitCode(err))
	}
}

func TestHookGate_PayloadCommitOnSuccess(t *testing.T) {
	stateDir := t.TempDir()

	app, _, _ := testApp()
	err := runCLI(app, "hook", "gate", "setup", "--version", "abc12345", "--state-dir", stateDir,
		"--", "true")
	if err != nil {
		t.Fatalf("gate with successful payload failed: %v", err)
	}

	// Version was committed: second gate skips.
	app, _, _ = testApp()
	err = runCLI(app, "hook", "gate", "setup", "--version", "abc12345", "--state-dir", stateDir)
	if exitCode(err) != int(runtime.ExitSkip) {
		t.Errorf("exit code = %d, want skip after committed payload", exitCode(err))
	}
}

func TestHookGate_FailedPayloadNotCommitted(t *testing.T) {
	stateDir := t.TempDir()

	app, _, _ := testApp()
	err := runCLI(app, "hook", "gate", "setup", "--version", "abc12345", "--state-dir", stateDir,
		"--", "false")
	if exitCode(err) != 1 {
		t.Fatalf("gate with failing payload should exit 1, got %v", err)
	}

	// Nothing recorded: the hook runs again next boot.
	app, _, _ = testApp()
	if err := runCLI(app, "hook", "gate", "setup", "--version", "abc12345", "--state-dir", stateDir); err != nil {
		t.Errorf("failed payload must not be committed, gate said skip: %v", err)
	}
}

func TestHookStatus(t *testing.T) {
	stateDir := t.TempDir()

	app, stdout, _ := testApp()
	if err := runCLI(app, "hook", "status", "--state-dir", stateDir); err != nil {
		t.Fatalf("status on empty dir failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "no hook versions recorded") {
		t.Errorf("status output = %q", stdout.String())
	}

	app, _, _ = testApp()
	if err := runCLI(app, "hook", "commit", "one", "abc12345", "--state-dir", stateDir); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	app, _, _ = testApp()
	if err := runCLI(app, "hook", "commit", "two", "def67890", "--state-dir", stateDir); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	app, stdout, _ = testApp()
	if err := runCLI(app, "hook", "status", "--state-dir", stateDir); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"one", "two", "abc12345", "def67890"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestHookGate_StateDirFromConfig(t *testing.T) {
	stateDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.cue")
	if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf("state_dir: %q\n", stateDir)), 0o644); err != nil {
		t.Fatal(err)
	}

	// Commit without --state-dir: the record must land in the
	// configured state_dir.
	app, _, _ := testApp()
	if err := runCLI(app, "hook", "commit", "fonts", "abc12345", "--config", cfgPath); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, "fonts.json")); err != nil {
		t.Fatalf("record not written under the configured state_dir: %v", err)
	}

	// The gate reads the same directory and skips.
	app, _, _ = testApp()
	err := runCLI(app, "hook", "gate", "fonts", "--version", "abc12345", "--config", cfgPath)
	if exitCode(err) != int(runtime.ExitSkip) {
		t.Errorf("exit code = %d, want %d (configured state_dir was not consulted)", exitCode(err), runtime.ExitSkip)
	}
}
