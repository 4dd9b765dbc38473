package converters

import (
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
)

// NewParam converts param trees between xml and the prc family
func NewParam(d Deps) convert.Converter {
	return &pair{
		Deps:      d,
		name:      "param",
		human:     "xml",
		binary:    []string{"prc", "stprm", "stdat"},
		binaryOut: "prc",
		toArgs: func(in, out, _ string) (string, []string) {
			return config.ToolParamXML, []string{"-a", in, "-o", out}
		},
		fromArgs: func(in, out, _ string) (string, []string) {
			return config.ToolParamXML, []string{"-d", in, "-o", out}
		},
	}
}
