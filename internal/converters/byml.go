package converters

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/jam1garner/discord-forge/internal/archive"
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
	"github.com/jam1garner/discord-forge/internal/yaz0"
)

// BymlExts are the extensions a byml document may be written as. Each has a
// Yaz0 compressed variant with an "s" prefix.
var BymlExts = []string{
	"baischedule", "baniminfo", "bgdata", "bgsvdata", "bquestpack", "byml", "mubin",
}

const defaultBymlExt = "byml"

var bymlSignatures = [][]byte{[]byte("BY"), []byte("YB"), yaz0.Magic}

// Byml converts yml documents to byml and back. Binary inputs are
// recognised by content whatever their extension.
type Byml struct {
	Deps
}

// NewByml creates the byml converter
func NewByml(d Deps) *Byml {
	return &Byml{Deps: d}
}

func (b *Byml) Name() string { return "byml" }

func (b *Byml) Formats() convert.Formats {
	binary := append(make([]string, 0, len(BymlExts)*2), BymlExts...)
	for _, ext := range BymlExts {
		binary = append(binary, "s"+ext)
	}
	return convert.Formats{Human: []string{"yml"}, Binary: binary}
}

func (b *Byml) Classify(ext, path string) convert.Direction {
	if ext == "yml" {
		return convert.ConvertTo
	}
	if convert.HasMagic(b.Fs, path, bymlSignatures...) {
		return convert.ConvertFrom
	}
	return convert.NoMatch
}

// BymlOutput picks the output extension from option and whether the file
// must be Yaz0 compressed afterwards
func BymlOutput(option string) (ext string, compress bool) {
	for _, e := range BymlExts {
		if strings.Contains(option, "s"+e) {
			return "s" + e, true
		}
	}
	for _, e := range BymlExts {
		if strings.Contains(option, e) {
			return e, false
		}
	}
	return defaultBymlExt, false
}

func (b *Byml) ConvertTo(ctx context.Context, path, option string) (string, error) {
	if err := checkYAML(b.Fs, path); err != nil {
		return "", err
	}

	ext, compress := BymlOutput(option)
	bigEndian := archive.ResolvePolicy(option).ByteOrder == binary.BigEndian
	out := convert.ReplaceExt(path, ext)

	slog.Debug("encoding byml", "path", path, "extension", ext, "big_endian", bigEndian, "compress", compress)

	args := []string{path, out}
	if bigEndian {
		args = append(args, "-b")
	}
	if err := b.tool(ctx, config.ToolYmlToByml, args...); err != nil {
		return "", err
	}

	if compress {
		if err := compressInPlace(b.Fs, out); err != nil {
			return "", err
		}
	}
	return out, nil
}

func (b *Byml) ConvertFrom(ctx context.Context, path, _ string) (string, error) {
	out := convert.ReplaceExt(path, "yml")
	if err := b.tool(ctx, config.ToolBymlToYml, path, out); err != nil {
		return "", err
	}
	return out, nil
}

// compressInPlace replaces a file with its Yaz0 compressed form
func compressInPlace(fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return convert.Wrap(convert.KindIO, fmt.Errorf("read %s for compression: %w", path, err))
	}
	packed := yaz0.Compress(data)
	if err := afero.WriteFile(fsys, path, packed, 0o644); err != nil {
		return convert.Wrap(convert.KindIO, fmt.Errorf("write compressed %s: %w", path, err))
	}
	slog.Debug("file compressed", "path", path, "raw_bytes", len(data), "compressed_bytes", len(packed))
	return nil
}
