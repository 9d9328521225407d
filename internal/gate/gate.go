// SPDX-License-Identifier: MPL-2.0

// Package gate decides, at first user boot, whether a hook's payload
// should run. The decision compares the version hash baked into the hook
// at build time against the last version recorded on the deployed system.
//
// The one correctness-sensitive invariant in this system lives here: a
// record is committed only after the payload succeeds. Recording early
// would silently disable the retry-on-next-boot guarantee for failed
// hooks.
package gate

import (
	"context"
	"fmt"

	"dudley/internal/hash"
)

// Decision is the gate's verdict for one hook.
type Decision int

const (
	// DecisionRun means the payload must execute: either no prior record
	// exists (first boot) or the recorded version differs from the
	// current one (hook content changed).
	DecisionRun Decision = iota
	// DecisionSkip means the recorded version matches the current one;
	// the payload already ran successfully for this content.
	DecisionSkip
)

// String returns the decision name.
func (d Decision) String() string {
	if d == DecisionSkip {
		return "skip"
	}
	return "run"
}

// Evaluate is the pure decision function over (prior, current).
func Evaluate(prev string, hasPrev bool, current string) Decision {
	if !hasPrev {
		return DecisionRun
	}
	if prev == current {
		return DecisionSkip
	}
	return DecisionRun
}

// Gate couples the decision function with a record store.
type Gate struct {
	store *Store
}

// New creates a Gate over the given store.
func New(store *Store) *Gate {
	return &Gate{store: store}
}

// Decide evaluates the gate for one hook against its current version.
func (g *Gate) Decide(hook, current string) (Decision, error) {
	if !hash.ValidFormat(current) {
		return DecisionRun, &hash.InvalidFormatError{Hash: current}
	}
	prev, ok, err := g.store.Get(hook)
	if err != nil {
		return DecisionRun, fmt.Errorf("failed to read record for hook %s: %w", hook, err)
	}
	return Evaluate(prev, ok, current), nil
}

// Run evaluates the gate and, on DecisionRun, executes the payload. The
// record is committed only when the payload returns nil; a failing
// payload leaves the prior record untouched so the next boot retries
// with the same decision.
func (g *Gate) Run(ctx context.Context, hook, current string, payload func(context.Context) error) (Decision, error) {
	decision, err := g.Decide(hook, current)
	if err != nil {
		return decision, err
	}
	if decision == DecisionSkip {
		return DecisionSkip, nil
	}

	if err := payload(ctx); err != nil {
		return DecisionRun, fmt.Errorf("hook %s payload failed: %w", hook, err)
	}

	if err := g.store.Commit(hook, current); err != nil {
		return DecisionRun, fmt.Errorf("failed to record version for hook %s: %w", hook, err)
	}
	return DecisionRun, nil
}

// Commit records a successful run directly. Exposed for hook scripts that
// manage their own payload execution and call back to record success.
func (g *Gate) Commit(hook, version string) error {
	if !hash.ValidFormat(version) {
		return &hash.InvalidFormatError{Hash: version}
	}
	return g.store.Commit(hook, version)
}
