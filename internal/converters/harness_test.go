package converters

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/staging"
	"github.com/jam1garner/discord-forge/internal/toolrun"
)

const stagingDir = "/tmp/converter"

type toolCall struct {
	tool string
	args []string
}

// harness wires converters to an in-memory filesystem and a fake runner.
// Every tool is configured with its own name as the command, so calls are
// recorded by tool name. Unless told to fail, a tool writes its output file.
type harness struct {
	fs     afero.Fs
	cfg    *config.Config
	calls  []toolCall
	fail   map[string]toolrun.Result
	output map[string][]byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.NewConfigManagerWithFilesystem(afero.NewMemMapFs()).GetDefaultConfig()
	for _, name := range config.RequiredTools {
		cfg.Tools[name] = config.ToolConfig{Command: name}
	}
	return &harness{
		fs:     afero.NewMemMapFs(),
		cfg:    cfg,
		fail:   make(map[string]toolrun.Result),
		output: make(map[string][]byte),
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Config:  h.cfg,
		Runner:  toolrun.Func(h.run),
		Fs:      h.fs,
		Staging: staging.New(h.fs, stagingDir, nil),
	}
}

func (h *harness) run(_ context.Context, tool string, args ...string) (toolrun.Result, error) {
	h.calls = append(h.calls, toolCall{tool: tool, args: args})
	if res, ok := h.fail[tool]; ok {
		return res, nil
	}

	out := outputArg(args)
	data, ok := h.output[tool]
	if !ok {
		data = []byte("converted by " + tool)
	}
	if out != "" {
		if err := afero.WriteFile(h.fs, out, data, 0o644); err != nil {
			return toolrun.Result{}, err
		}
	}
	return toolrun.Result{}, nil
}

// outputArg finds the output path in the argument conventions the
// converters use
func outputArg(args []string) string {
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return args[i+1]
		}
	}
	for i, a := range args {
		if a == "-c" && i+2 < len(args) {
			return args[i+2]
		}
	}
	if len(args) >= 2 {
		return args[1]
	}
	return ""
}

func (h *harness) write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(h.fs, path, data, 0o644))
}

func (h *harness) toolNames() []string {
	names := make([]string, 0, len(h.calls))
	for _, c := range h.calls {
		names = append(names, c.tool)
	}
	return names
}

func (h *harness) stagingEntries(t *testing.T) []string {
	t.Helper()
	entries, err := afero.ReadDir(h.fs, stagingDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.Name() != staging.LockFileName {
			names = append(names, e.Name())
		}
	}
	return names
}
