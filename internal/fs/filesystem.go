// Package fs picks the filesystem and locates bundled converter tools
package fs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Factory provides the filesystem conversions run against
type Factory interface {
	// Production returns a filesystem that operates on the real OS filesystem
	Production() afero.Fs
}

// DefaultFactory provides the standard filesystem factory implementation
type DefaultFactory struct{}

// NewDefaultFactory creates a new filesystem factory
func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

func (f *DefaultFactory) Production() afero.Fs {
	return afero.NewOsFs()
}

// ExecutablePath returns the path of the running binary
func ExecutablePath() (string, error) {
	return os.Executable()
}

// MockExecutablePath can be used in tests to override the executable path
var MockExecutablePath func() (string, error)

// TestExecutablePath returns the executable path, using mock if set (for testing)
func TestExecutablePath() (string, error) {
	if MockExecutablePath != nil {
		return MockExecutablePath()
	}
	return ExecutablePath()
}

// ResolveToolsDir returns the directory external tools are run from.
// An empty configured value means the directory holding the binary, which
// is where the bundled vgaudio, paramxml and friends are shipped.
func ResolveToolsDir(configured string) (string, error) {
	if configured != "" {
		abs, err := filepath.Abs(configured)
		if err != nil {
			return "", fmt.Errorf("resolve tools dir %s: %w", configured, err)
		}
		slog.Debug("using configured tools dir", "tools_dir", abs)
		return abs, nil
	}

	exe, err := TestExecutablePath()
	if err != nil {
		slog.Error("failed to locate executable", "error", err)
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	dir := filepath.Dir(exe)
	slog.Debug("using executable dir for tools", "tools_dir", dir)
	return dir, nil
}

// AbsPaths makes every path absolute so conversions are independent of
// the tools dir the converters run in
func AbsPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
