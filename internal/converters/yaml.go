package converters

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/jam1garner/discord-forge/internal/convert"
)

// checkYAML rejects documents that do not parse, so users get the line
// number instead of an assembler stack trace
func checkYAML(fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return convert.Wrap(convert.KindIO, fmt.Errorf("read %s: %w", path, err))
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Debug("yaml preflight failed", "path", path, "error", err)
		return convert.Errorf(convert.KindTool, "%s is not valid yaml: %v", filepath.Base(path), err)
	}
	return nil
}
