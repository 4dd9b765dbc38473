package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
)

// Registry holds converters in dispatch priority order. It is populated once
// at startup and only read afterwards, so a single Registry may serve
// concurrent requests.
type Registry struct {
	fs         afero.Fs
	converters []Converter
}

// NewRegistry creates an empty registry that checks and removes files through fsys
func NewRegistry(fsys afero.Fs) *Registry {
	slog.Debug("creating new converter registry")
	return &Registry{
		fs:         fsys,
		converters: make([]Converter, 0),
	}
}

// Register appends a converter; earlier registrations win ties
func (r *Registry) Register(c Converter) {
	if c == nil {
		slog.Warn("attempted to register nil converter")
		return
	}

	r.converters = append(r.converters, c)

	slog.Debug("converter registered",
		"converter", c.Name(),
		"total_converters", len(r.converters))
}

// Converters returns the registered converters in dispatch order
func (r *Registry) Converters() []Converter {
	return r.converters
}

// SupportedTypes lists every extension the registered converters describe,
// in registration order without duplicates
func (r *Registry) SupportedTypes() []string {
	seen := make(map[string]bool)
	var types []string
	add := func(exts []string) {
		for _, ext := range exts {
			if !seen[ext] {
				seen[ext] = true
				types = append(types, ext)
			}
		}
	}

	for _, c := range r.converters {
		if d, ok := c.(Describer); ok {
			f := d.Formats()
			add(f.Human)
			add(f.Binary)
		}
	}
	return types
}

// Detect returns the first converter that claims path and the direction it chose
func (r *Registry) Detect(path string) (Converter, Direction) {
	ext := Extension(path)
	for _, c := range r.converters {
		if dir := r.classify(c, ext, path); dir != NoMatch {
			return c, dir
		}
	}
	return nil, NoMatch
}

// Handle converts one inbound request
func (r *Registry) Handle(ctx context.Context, req Request) (string, error) {
	return r.Convert(ctx, req.Path, req.Option)
}

// Convert runs the first converter that claims path and succeeds, and
// returns the path of the file it produced. The input is consumed: it is
// removed once a decision is reached, whether or not conversion succeeded.
func (r *Registry) Convert(ctx context.Context, path, option string) (string, error) {
	ext := Extension(path)
	slog.Debug("dispatching conversion", "path", path, "extension", ext, "has_option", option != "")

	var lastErr *Error
	output, succeeded := "", false
	for _, c := range r.converters {
		dir := r.classify(c, ext, path)
		if dir == NoMatch {
			continue
		}

		slog.Debug("converter claimed file", "converter", c.Name(), "direction", dir.String(), "path", path)

		out, err := r.run(ctx, c, dir, path, option)
		if err != nil {
			slog.Warn("converter failed, trying next",
				"converter", c.Name(),
				"direction", dir.String(),
				"kind", err.Kind.String(),
				"error", err.Message)
			lastErr = err
			continue
		}

		output, succeeded = out, true
		slog.Info("conversion succeeded", "converter", c.Name(), "direction", dir.String(), "output", output)
		break
	}

	removeErr := r.fs.Remove(path)

	if !succeeded {
		if lastErr == nil {
			lastErr = Errorf(KindBadExtension, "Unsupported Filetype. Supported types: %s",
				strings.Join(r.SupportedTypes(), ", "))
		}
		if removeErr != nil {
			slog.Error("failed to remove input after failed conversion", "path", path, "error", removeErr)
		}
		slog.Error("conversion failed", "path", path, "kind", lastErr.Kind.String(), "error", lastErr.Message)
		return "", lastErr
	}

	if removeErr != nil {
		slog.Error("failed to remove input after conversion", "path", path, "error", removeErr)
		return "", Wrap(KindIO, fmt.Errorf("remove input %s: %w", path, removeErr))
	}

	exists, err := afero.Exists(r.fs, output)
	if output == "" || err != nil || !exists {
		slog.Error("converter reported success without output", "path", path, "output", output, "error", err)
		return "", Errorf(KindMissingOutput, "Converted file %s was not found", output)
	}

	return output, nil
}

// classify asks c about a file; a panicking converter does not claim it
func (r *Registry) classify(c Converter, ext, path string) (dir Direction) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("converter panicked during classification", "converter", c.Name(), "panic", rec)
			dir = NoMatch
		}
	}()
	return c.Classify(ext, path)
}

// run performs the directional conversion, turning any failure or panic into an *Error
func (r *Registry) run(ctx context.Context, c Converter, dir Direction, path, option string) (out string, cerr *Error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			cerr = Errorf(KindTool, "%s converter crashed: %v", c.Name(), rec)
		}
	}()

	var err error
	if dir == ConvertTo {
		out, err = c.ConvertTo(ctx, path, option)
	} else {
		out, err = c.ConvertFrom(ctx, path, option)
	}
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}
