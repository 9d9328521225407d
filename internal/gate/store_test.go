// SPDX-License-Identifier: MPL-2.0

package gate

import (
	"os"
	"path/filepath"
	"testing"
)

// writeGarbage replaces a hook's record file with non-JSON bytes.
func writeGarbage(s *Store, hook string) error {
	return os.WriteFile(filepath.Join(s.Dir(), hook+".json"), []byte("not json"), 0o644)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	_, ok, err := store.Get("vscode")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no record before first commit")
	}

	if err := store.Commit("vscode", "1a2b3c4d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := store.Get("vscode")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || got != "1a2b3c4d" {
		t.Errorf("Get() = (%q, %v), want (1a2b3c4d, true)", got, ok)
	}
}

func TestStore_CommitOverwrites(t *testing.T) {
	t.Parallel()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Commit("hook", "1a2b3c4d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Commit("hook", "deadbeef"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := store.Get("hook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || got != "deadbeef" {
		t.Errorf("Get() = (%q, %v), want (deadbeef, true)", got, ok)
	}
}

func TestStore_CreatesDirOnFirstCommit(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "hook-versions")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Commit("hook", "1a2b3c4d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state dir was not created: %v", err)
	}
}

func TestStore_EmptyDirRejected(t *testing.T) {
	t.Parallel()
	if _, err := NewStore("  "); err == nil {
		t.Error("expected an error for an empty state dir")
	}
}
