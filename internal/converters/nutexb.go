package converters

import (
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
)

// NewNutexb converts dds textures to nutexb and back. When encoding, a
// non-empty option is used as the texture's internal name.
func NewNutexb(d Deps) convert.Converter {
	return &pair{
		Deps:      d,
		name:      "nutexb",
		human:     "dds",
		binary:    []string{"nutexb"},
		binaryOut: "nutexb",
		toArgs: func(in, out, option string) (string, []string) {
			args := []string{in, out}
			if option != "" {
				args = append(args, "--name", option)
			}
			return config.ToolNutexb, args
		},
		fromArgs: func(in, out, _ string) (string, []string) {
			return config.ToolNutexb, []string{in, out}
		},
	}
}
