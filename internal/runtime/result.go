// SPDX-License-Identifier: MPL-2.0

package runtime

// Result captures one module execution.
type Result struct {
	// ExitCode is the module's exit status.
	ExitCode ExitCode
	// Output is the captured stdout.
	Output string
	// ErrOutput is the captured stderr.
	ErrOutput string
	// Error is set only for infrastructure failures (missing shell,
	// unreadable entrypoint), never for a plain non-zero exit.
	Error error
}

// NewErrorResult creates a Result for an infrastructure failure.
func NewErrorResult(err error) *Result {
	return &Result{ExitCode: 1, Error: err}
}
