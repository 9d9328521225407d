// SPDX-License-Identifier: MPL-2.0

// Package runtime executes build module entrypoints as subprocesses (or
// in-process via the virtual shell) and reports captured output and exit
// codes. Modules are opaque executables with their own filesystem side
// effects; this package coordinates, it never reimplements what a module
// does.
package runtime

import (
	"context"

	"dudley/internal/module"
)

type (
	// ExecutionContext carries everything a runtime needs to run one module.
	ExecutionContext struct {
		// Context cancels or bounds the execution.
		Context context.Context
		// Module is the build step to execute.
		Module *module.Module
		// ExtraEnv is merged over the inherited environment.
		ExtraEnv map[string]string
		// WorkDir overrides the default working directory (the module dir).
		WorkDir string
	}

	// Runtime executes module entrypoints.
	Runtime interface {
		// Name identifies the runtime ("native", "virtual").
		Name() string
		// Available reports whether this runtime can run on this host.
		Available() bool
		// Execute runs the module's entrypoint and captures its output.
		// A non-nil Result is always returned; infrastructure failures
		// are reported via Result.Error with a non-zero exit code.
		Execute(ctx *ExecutionContext) *Result
	}
)

// workDir resolves the execution working directory.
func (c *ExecutionContext) workDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return c.Module.Dir
}

// ctx returns a non-nil context.
func (c *ExecutionContext) ctx() context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
