package converters

import (
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
)

// NewSqb converts sound sequence banks between yaml and sqb. It follows the
// motion list converter, which rejects yaml it cannot assemble.
func NewSqb(d Deps) convert.Converter {
	return &pair{
		Deps:      d,
		name:      "sqb",
		human:     "yaml",
		binary:    []string{"sqb"},
		binaryOut: "sqb",
		preflight: checkYAML,
		toArgs: func(in, out, _ string) (string, []string) {
			return config.ToolSqb, []string{in, out}
		},
		fromArgs: func(in, out, _ string) (string, []string) {
			return config.ToolSqb, []string{in, out}
		},
	}
}
