// Package converters holds the concrete format converters and the default
// dispatch order used by the forge binary.
package converters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
	"github.com/jam1garner/discord-forge/internal/staging"
	"github.com/jam1garner/discord-forge/internal/toolrun"
)

// Deps are the shared collaborators every converter is built from. Staging
// holds intermediate files and only the audio converter needs it.
type Deps struct {
	Config  *config.Config
	Runner  toolrun.Runner
	Fs      afero.Fs
	Staging *staging.Area
}

// tool runs the configured external program name with extra arguments
// appended to its configured prefix. A non-zero exit becomes a KindTool
// error carrying the tool's stdout and stderr.
func (d Deps) tool(ctx context.Context, name string, extra ...string) error {
	tc := d.Config.Tool(name)
	if tc.Command == "" {
		return convert.Errorf(convert.KindTool, "tool %s is not configured", name)
	}

	args := tc.Argv(extra...)
	slog.Debug("invoking converter tool", "tool", name, "command", tc.Command, "args", args)

	res, err := d.Runner.Run(ctx, tc.Command, args...)
	if err != nil {
		slog.Error("converter tool could not start", "tool", name, "error", err)
		return convert.Wrap(convert.KindTool, fmt.Errorf("%s: %w", name, err))
	}
	if res.Success() {
		slog.Debug("converter tool succeeded", "tool", name)
		return nil
	}

	msg, err := res.Diagnostic()
	if errors.Is(err, toolrun.ErrNotUTF8) {
		slog.Error("converter tool output is not text", "tool", name, "exit_code", res.ExitCode)
		return convert.Wrap(convert.KindEncoding, fmt.Errorf("%s failed with exit code %d: %w", name, res.ExitCode, err))
	}

	slog.Error("converter tool failed", "tool", name, "exit_code", res.ExitCode, "output", msg)
	return &convert.Error{Kind: convert.KindTool, Message: msg}
}

// pair is a converter for formats with one human and one or more binary
// extensions, translated by external tools in both directions
type pair struct {
	Deps
	name   string
	human  string
	binary []string

	// output extension when producing the binary side
	binaryOut string

	// claim is an optional content check for binary inputs
	claim func(fsys afero.Fs, path string) bool

	// preflight is an optional check of human inputs before the tool runs
	preflight func(fsys afero.Fs, path string) error

	toArgs   func(in, out, option string) (tool string, args []string)
	fromArgs func(in, out, option string) (tool string, args []string)
}

func (p *pair) Name() string { return p.name }

func (p *pair) Formats() convert.Formats {
	return convert.Formats{Human: []string{p.human}, Binary: p.binary}
}

func (p *pair) Classify(ext, path string) convert.Direction {
	if ext == p.human {
		return convert.ConvertTo
	}
	for _, b := range p.binary {
		if ext != b {
			continue
		}
		if p.claim == nil || p.claim(p.Fs, path) {
			return convert.ConvertFrom
		}
	}
	return convert.NoMatch
}

func (p *pair) ConvertTo(ctx context.Context, path, option string) (string, error) {
	if p.preflight != nil {
		if err := p.preflight(p.Fs, path); err != nil {
			return "", err
		}
	}
	out := convert.ReplaceExt(path, p.binaryOut)
	tool, args := p.toArgs(path, out, option)
	if err := p.tool(ctx, tool, args...); err != nil {
		return "", err
	}
	return out, nil
}

func (p *pair) ConvertFrom(ctx context.Context, path, option string) (string, error) {
	out := convert.ReplaceExt(path, p.human)
	tool, args := p.fromArgs(path, out, option)
	if err := p.tool(ctx, tool, args...); err != nil {
		return "", err
	}
	return out, nil
}
