package converters

import (
	"github.com/spf13/afero"

	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
)

// motionTag is the hash40 word every motion list starts with
const motionTag = "motion"

// NewMotionList converts motion lists between yaml and bin. Only .bin files
// starting with the motion tag are claimed; other .bin files fall through.
func NewMotionList(d Deps) convert.Converter {
	return &pair{
		Deps:      d,
		name:      "motion_list",
		human:     "yaml",
		binary:    []string{"bin"},
		binaryOut: "bin",
		claim: func(fsys afero.Fs, path string) bool {
			return convert.HasHash40Tag(fsys, path, motionTag)
		},
		preflight: checkYAML,
		toArgs: func(in, out, _ string) (string, []string) {
			return config.ToolMotionList, []string{"asm", in, "-o", out}
		},
		fromArgs: func(in, out, _ string) (string, []string) {
			return config.ToolMotionList, []string{"disasm", in, "-o", out}
		},
	}
}
