// Package toolrun runs the external codec tools converters shell out to.
package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"unicode/utf8"
)

// ErrNotUTF8 is returned when tool output cannot be shown as text
var ErrNotUTF8 = errors.New("tool output is not valid UTF-8")

// Result is the outcome of a finished process
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports a zero exit status
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Diagnostic is stdout followed by stderr, as text
func (r Result) Diagnostic() (string, error) {
	out := make([]byte, 0, len(r.Stdout)+len(r.Stderr))
	out = append(out, r.Stdout...)
	out = append(out, r.Stderr...)
	if !utf8.Valid(out) {
		return "", ErrNotUTF8
	}
	return string(out), nil
}

// Runner executes a tool to completion. A non-zero exit is reported through
// Result; the error is reserved for processes that could not be run at all.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) (Result, error)
}

// Func adapts a function to Runner
type Func func(ctx context.Context, tool string, args ...string) (Result, error)

// Run calls f
func (f Func) Run(ctx context.Context, tool string, args ...string) (Result, error) {
	return f(ctx, tool, args...)
}

// ExecRunner runs tools as child processes
type ExecRunner struct {
	// Dir is the working directory tool paths are relative to; empty means the current one
	Dir string
}

// NewExecRunner creates a runner rooted at dir
func NewExecRunner(dir string) *ExecRunner {
	slog.Debug("creating exec runner", "dir", dir)
	return &ExecRunner{Dir: dir}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) (Result, error) {
	slog.Debug("running external tool", "tool", tool, "args", args)

	cmd := exec.CommandContext(ctx, tool, args...) //nolint:gosec
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode == -1 {
			// killed by a signal or the context
			res.ExitCode = 1
		}
	default:
		slog.Error("failed to run external tool", "tool", tool, "error", err)
		return res, fmt.Errorf("run %s: %w", tool, err)
	}

	slog.Debug("external tool finished",
		"tool", tool,
		"exit_code", res.ExitCode,
		"stdout_bytes", len(res.Stdout),
		"stderr_bytes", len(res.Stderr))

	return res, nil
}
