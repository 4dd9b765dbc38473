package toolrun

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultDiagnostic(t *testing.T) {
	r := Result{ExitCode: 2, Stdout: []byte("out:"), Stderr: []byte("err")}
	msg, err := r.Diagnostic()
	require.NoError(t, err)
	assert.Equal(t, "out:err", msg)
	assert.False(t, r.Success())

	bad := Result{Stderr: []byte{0xff, 0xfe}}
	_, err = bad.Diagnostic()
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestFuncAdapter(t *testing.T) {
	var gotTool string
	var gotArgs []string
	runner := Func(func(ctx context.Context, tool string, args ...string) (Result, error) {
		gotTool, gotArgs = tool, args
		return Result{Stdout: []byte("ok")}, nil
	})

	res, err := runner.Run(context.Background(), "luac", "-s", "-o", "out.lc", "in.lua")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "luac", gotTool)
	assert.Equal(t, []string{"-s", "-o", "out.lc", "in.lua"}, gotArgs)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	script := writeScript(t, "echo converted \"$1\"\necho warning >&2\nexit 0\n")

	res, err := NewExecRunner("").Run(context.Background(), script, "file.prc")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "converted file.prc\n", string(res.Stdout))
	assert.Equal(t, "warning\n", string(res.Stderr))
}

func TestExecRunnerReportsExitCode(t *testing.T) {
	script := writeScript(t, "echo bad input >&2\nexit 3\n")

	res, err := NewExecRunner("").Run(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)

	msg, err := res.Diagnostic()
	require.NoError(t, err)
	assert.Equal(t, "bad input\n", msg)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := NewExecRunner("").Run(context.Background(), "definitely-not-a-real-tool-xyz")
	assert.Error(t, err)
}
