package converters

import (
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
)

// NewMsc compiles msc scripts from c source and decompiles them back
func NewMsc(d Deps) convert.Converter {
	return &pair{
		Deps:      d,
		name:      "msc",
		human:     "c",
		binary:    []string{"mscsb"},
		binaryOut: "mscsb",
		toArgs: func(in, out, _ string) (string, []string) {
			return config.ToolMscCompiler, []string{in, "-o", out}
		},
		fromArgs: func(in, out, _ string) (string, []string) {
			return config.ToolMscDecompiler, []string{"-c", in, "-o", out}
		},
	}
}
