// SPDX-License-Identifier: MPL-2.0

package gate

import (
	"context"
	"errors"
	"testing"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return New(store)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		prev    string
		hasPrev bool
		current string
		want    Decision
	}{
		{"no prior record", "", false, "1a2b3c4d", DecisionRun},
		{"matching record", "1a2b3c4d", true, "1a2b3c4d", DecisionSkip},
		{"changed content", "1a2b3c4d", true, "deadbeef", DecisionRun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Evaluate(tt.prev, tt.hasPrev, tt.current); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_FirstBootRuns(t *testing.T) {
	t.Parallel()
	g := newTestGate(t)

	decision, err := g.Decide("vscode", "1a2b3c4d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != DecisionRun {
		t.Errorf("first boot decision = %v, want run", decision)
	}
}

func TestGate_RunCommitsOnSuccess(t *testing.T) {
	t.Parallel()
	g := newTestGate(t)

	ran := 0
	payload := func(context.Context) error { ran++; return nil }

	decision, err := g.Run(context.Background(), "vscode", "1a2b3c4d", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != DecisionRun || ran != 1 {
		t.Fatalf("expected one payload run, got decision=%v ran=%d", decision, ran)
	}

	// Same version again: skip without running the payload.
	decision, err = g.Run(context.Background(), "vscode", "1a2b3c4d", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != DecisionSkip || ran != 1 {
		t.Errorf("expected skip with no extra runs, got decision=%v ran=%d", decision, ran)
	}
}

func TestGate_FailedPayloadRetriesNextBoot(t *testing.T) {
	t.Parallel()
	g := newTestGate(t)

	boom := errors.New("dnf transaction failed")
	_, err := g.Run(context.Background(), "vscode", "1a2b3c4d", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected payload error, got %v", err)
	}

	// The record must be untouched, so the same version still runs.
	decision, err := g.Decide("vscode", "1a2b3c4d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != DecisionRun {
		t.Errorf("decision after failed payload = %v, want run", decision)
	}
}

func TestGate_ChangedVersionRuns(t *testing.T) {
	t.Parallel()
	g := newTestGate(t)

	if err := g.Commit("vscode", "1a2b3c4d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decision, err := g.Decide("vscode", "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != DecisionRun {
		t.Errorf("decision for changed version = %v, want run", decision)
	}
}

func TestGate_InvalidVersion(t *testing.T) {
	t.Parallel()
	g := newTestGate(t)

	if _, err := g.Decide("vscode", "NOTAHASH"); err == nil {
		t.Error("expected an error for an invalid version hash")
	}
	if err := g.Commit("vscode", "short"); err == nil {
		t.Error("expected an error committing an invalid version hash")
	}
}

func TestStore_CorruptRecordTreatedAsAbsent(t *testing.T) {
	t.Parallel()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Commit("hook", "1a2b3c4d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Overwrite with garbage; the store must fall back to "absent".
	if err := writeGarbage(store, "hook"); err != nil {
		t.Fatalf("failed to corrupt record: %v", err)
	}
	_, ok, err := store.Get("hook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("corrupt record should read as absent")
	}
}

func TestStore_InvalidHookName(t *testing.T) {
	t.Parallel()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if _, _, err := store.Get("../escape"); err == nil {
		t.Error("expected an error for a path-escaping hook name")
	}
	if err := store.Commit("has space", "1a2b3c4d"); err == nil {
		t.Error("expected an error for an invalid hook name")
	}
}
