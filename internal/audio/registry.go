package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DecoderRegistry picks a decoder for an input file. Content sniffing wins
// over the extension, so a mislabelled upload still decodes.
type DecoderRegistry struct {
	decoders []Decoder
}

// NewDecoderRegistry creates a registry over decoders in priority order
func NewDecoderRegistry(decoders ...Decoder) *DecoderRegistry {
	r := &DecoderRegistry{}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// NewDefaultRegistry creates a registry with the WAV, MP3 and AIFF decoders
func NewDefaultRegistry() *DecoderRegistry {
	return NewDecoderRegistry(NewWavDecoder(), NewMp3Decoder(), NewAiffDecoder())
}

// Register appends a decoder; nil is ignored
func (r *DecoderRegistry) Register(d Decoder) {
	if d == nil {
		return
	}
	r.decoders = append(r.decoders, d)
	slog.Debug("decoder registered", "format", d.FormatName(), "total", len(r.decoders))
}

// Formats returns the format names in priority order
func (r *DecoderRegistry) Formats() []string {
	names := make([]string, len(r.decoders))
	for i, d := range r.decoders {
		names[i] = d.FormatName()
	}
	return names
}

// ByExtension returns the first decoder claiming the extension of path
func (r *DecoderRegistry) ByExtension(path string) Decoder {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return nil
	}
	for _, d := range r.decoders {
		if slices.Contains(d.Extensions(), ext) {
			return d
		}
	}
	return nil
}

// Sniff returns the decoder whose MIME type matches the content header
func (r *DecoderRegistry) Sniff(header []byte) Decoder {
	if len(header) == 0 {
		return nil
	}
	mtype := mimetype.Detect(header)
	for _, d := range r.decoders {
		for _, m := range d.MimeTypes() {
			if mtype.Is(m) {
				return d
			}
		}
	}
	slog.Debug("content not recognised as audio", "mime", mtype.String())
	return nil
}

// Detect sniffs header first and falls back to the extension of path
func (r *DecoderRegistry) Detect(path string, header []byte) Decoder {
	if d := r.Sniff(header); d != nil {
		return d
	}
	return r.ByExtension(path)
}

// DecodeFile reads all of src and decodes it with the detected decoder
func (r *DecoderRegistry) DecodeFile(path string, src io.Reader) (*AudioData, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("failed to read audio input", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}

	d := r.Detect(path, data)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	slog.Debug("decoding audio", "path", path, "format", d.FormatName(), "size_bytes", len(data))
	decoded, err := d.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Error("audio decode failed", "path", path, "format", d.FormatName(), "error", err)
		return nil, fmt.Errorf("%s: %w", d.FormatName(), err)
	}

	slog.Info("audio decoded",
		"path", path,
		"format", d.FormatName(),
		"channels", decoded.Channels,
		"sample_rate", decoded.SampleRate,
		"frames", decoded.NumFrames())
	return decoded, nil
}
