package converters

import (
	"log/slog"

	"github.com/jam1garner/discord-forge/internal/convert"
)

// NewDefaultRegistry registers every converter in dispatch order. Formats
// that share an extension (xml, yaml, bin) are tried in this order and fall
// through to the next claimant on failure. Content-sniffing converters come
// last so an extension match always wins.
func NewDefaultRegistry(d Deps) *convert.Registry {
	reg := convert.NewRegistry(d.Fs)

	reg.Register(NewParam(d))
	reg.Register(NewMotionList(d))
	reg.Register(NewMaterial(d))
	reg.Register(NewLua(d))
	reg.Register(NewNutexb(d))
	reg.Register(NewMsc(d))
	reg.Register(NewSqb(d))
	reg.Register(NewNus3Audio(d))
	reg.Register(NewSarc(d))
	reg.Register(NewByml(d))

	slog.Debug("default converter registry built", "converters", len(reg.Converters()))
	return reg
}
