// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

// NativeRuntime executes module entrypoints with a POSIX shell subprocess.
type NativeRuntime struct {
	// Shell overrides the shell binary used to run entrypoints.
	Shell string
}

// NewNativeRuntime creates a native runtime with default shell lookup.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string { return "native" }

// Available reports whether a usable shell exists on this host.
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Execute runs the module's entrypoint and captures its output.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	shell, err := r.getShell()
	if err != nil {
		return NewErrorResult(err)
	}

	cmd := exec.CommandContext(ctx.ctx(), shell, ctx.Module.ExecutablePath())
	cmd.Dir = ctx.workDir()
	cmd.Env = append(os.Environ(), envToSlice(ctx.ExtraEnv)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := &Result{
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = ExitCode(exitErr.ExitCode())
			return result
		}
		result.ExitCode = 1
		result.Error = fmt.Errorf("failed to execute module %s: %w", ctx.Module.Name, runErr)
	}

	return result
}

// getShell determines which shell to use: configured, $SHELL, then bash/sh.
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	return "", fmt.Errorf("no shell found")
}

// envToSlice converts an env map into sorted KEY=VALUE form.
func envToSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
