// SPDX-License-Identifier: MPL-2.0

package runtime

type (
	// ExitCode represents a module process exit status, range 0-255 on
	// POSIX systems. The zero value means success.
	ExitCode int
)

// Module exit code contract, consumed by the orchestrator.
const (
	// ExitSuccess means the module completed its work.
	ExitSuccess ExitCode = 0
	// ExitSkip means the module intentionally did nothing. Not a
	// failure: logged distinctly and dependents still run.
	ExitSkip ExitCode = 2
)

// IsSuccess reports whether the code means the module completed.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// IsSkip reports whether the code means an intentional skip.
func (c ExitCode) IsSkip() bool { return c == ExitSkip }

// IsFailure reports whether the code is anything other than success or
// intentional skip.
func (c ExitCode) IsFailure() bool { return c != ExitSuccess && c != ExitSkip }
