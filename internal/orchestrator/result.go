// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"fmt"
	"time"

	"dudley/internal/module"
	"dudley/internal/runtime"
)

// Status classifies one module execution.
type Status int

const (
	// StatusSuccess means the module exited 0.
	StatusSuccess Status = iota
	// StatusSkipped means the module exited 2, an intentional no-op.
	StatusSkipped
	// StatusFailure means any other exit status or an infrastructure error.
	StatusFailure
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	default:
		return "failure"
	}
}

type (
	// Result is one finalized module execution. Immutable once recorded.
	Result struct {
		// Name is the module name.
		Name string
		// Category is the module's category.
		Category module.Category
		// Status classifies the outcome.
		Status Status
		// ExitCode is the raw exit status.
		ExitCode runtime.ExitCode
		// Duration is the wall-clock execution time.
		Duration time.Duration
		// Output is the captured stdout.
		Output string
		// ErrOutput is the captured stderr.
		ErrOutput string
	}

	// Summary aggregates a whole orchestrator run.
	Summary struct {
		// Results holds every finalized execution, in completion order.
		Results []Result
		// Succeeded, Skipped and Failed count results per status.
		Succeeded int
		Skipped   int
		Failed    int
		// Elapsed is the total wall-clock build time.
		Elapsed time.Duration
	}

	// ModuleExecutionError reports the module that halted the build.
	ModuleExecutionError struct {
		Name     string
		Category module.Category
		ExitCode runtime.ExitCode
	}
)

// Error implements the error interface.
func (e *ModuleExecutionError) Error() string {
	return fmt.Sprintf("module %s (category %s) failed with exit code %d",
		e.Name, e.Category, e.ExitCode)
}

// record appends a result and bumps the matching counter.
func (s *Summary) record(r Result) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusSuccess:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	case StatusFailure:
		s.Failed++
	}
}
