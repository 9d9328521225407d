// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes module entrypoints with the embedded mvdan/sh
// interpreter. It needs no shell on the host, which makes it the runtime
// of choice inside minimal build containers.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a virtual runtime.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string { return "virtual" }

// Available reports whether the runtime can run. The interpreter is
// built in, so it always can.
func (r *VirtualRuntime) Available() bool { return true }

// Execute parses and runs the module's entrypoint in-process, capturing
// its output.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	path := ctx.Module.ExecutablePath()
	script, err := os.ReadFile(path)
	if err != nil {
		return NewErrorResult(fmt.Errorf("failed to read entrypoint: %w", err))
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(string(script)), path)
	if err != nil {
		return NewErrorResult(fmt.Errorf("script syntax error: %w", err))
	}

	var stdout, stderr bytes.Buffer
	env := append(os.Environ(), envToSlice(ctx.ExtraEnv)...)

	runner, err := interp.New(
		interp.Dir(ctx.workDir()),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return NewErrorResult(fmt.Errorf("failed to create interpreter: %w", err))
	}

	runErr := runner.Run(ctx.ctx(), prog)
	result := &Result{
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
	}

	if runErr != nil {
		var exitStatus interp.ExitStatus
		if errors.As(runErr, &exitStatus) {
			result.ExitCode = ExitCode(exitStatus)
			return result
		}
		result.ExitCode = 1
		result.Error = fmt.Errorf("script execution failed: %w", runErr)
	}

	return result
}
