// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dudley/internal/runtime"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code runtime.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// commandError reports err on stderr under the given label, silences
// cobra's own error printing, and returns an ExitError with code 1.
// Every command failure path funnels through here so errors render
// once, in one format.
func commandError(app *App, cmd *cobra.Command, label string, err error) error {
	fmt.Fprintln(app.stderr, ErrorStyle.Render(label+": ")+formatErrorForDisplay(err, verbose))
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: 1, Err: err}
}

// silentExit returns an ExitError for exit codes that are part of a
// command's contract rather than failures, like the gate's skip status.
func silentExit(cmd *cobra.Command, code runtime.ExitCode) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: code}
}
