package converters

import (
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
)

// NewMaterial converts material tables between xml and numatb. It sits after
// param in the dispatch order, so an xml param rejects first.
func NewMaterial(d Deps) convert.Converter {
	return &pair{
		Deps:      d,
		name:      "material",
		human:     "xml",
		binary:    []string{"numatb"},
		binaryOut: "numatb",
		toArgs: func(in, out, _ string) (string, []string) {
			return config.ToolMatLab, []string{in, out}
		},
		fromArgs: func(in, out, _ string) (string, []string) {
			return config.ToolMatLab, []string{in, out}
		},
	}
}
