package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-audio/aiff"
)

// AiffDecoder reads uncompressed AIFF
type AiffDecoder struct{}

func NewAiffDecoder() *AiffDecoder {
	return &AiffDecoder{}
}

func (d *AiffDecoder) FormatName() string { return "AIFF" }

func (d *AiffDecoder) Extensions() []string { return []string{"aif", "aiff"} }

func (d *AiffDecoder) MimeTypes() []string { return []string{"audio/aiff"} }

func (d *AiffDecoder) Decode(reader io.Reader) (*AudioData, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}

	dec := aiff.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an AIFF file", ErrInvalidData)
	}

	channels, rate, bits := int(dec.NumChans), int(dec.SampleRate), int(dec.SampleBitDepth())
	if err := checkLayout("AIFF", channels, rate, bits); err != nil {
		return nil, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: AIFF samples: %v", ErrReadFailure, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: AIFF has no samples", ErrInvalidData)
	}

	slog.Debug("AIFF decoded", "channels", channels, "sample_rate", rate, "bits", bits, "samples", len(buf.Data))
	return &AudioData{
		Frames:     framesFromInterleaved(buf.Data, channels, bits),
		Channels:   channels,
		SampleRate: rate,
	}, nil
}
