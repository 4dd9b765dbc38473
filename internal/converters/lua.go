package converters

import (
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
)

// NewLua compiles lua source to stripped bytecode and decompiles it back
func NewLua(d Deps) convert.Converter {
	return &pair{
		Deps:      d,
		name:      "lua",
		human:     "lua",
		binary:    []string{"lc"},
		binaryOut: "lc",
		toArgs: func(in, out, _ string) (string, []string) {
			return config.ToolLuaCompiler, []string{"-s", "-o", out, in}
		},
		fromArgs: func(in, out, _ string) (string, []string) {
			return config.ToolLuaDecompiler, []string{"-o", out, in}
		},
	}
}
