package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/youpy/go-wav"
)

// WavDecoder reads PCM WAV files
type WavDecoder struct{}

func NewWavDecoder() *WavDecoder {
	return &WavDecoder{}
}

func (d *WavDecoder) FormatName() string { return "WAV" }

func (d *WavDecoder) Extensions() []string { return []string{"wav", "wave"} }

func (d *WavDecoder) MimeTypes() []string { return []string{"audio/wav"} }

// Decode reads the whole stream; go-wav needs a ReadSeeker
func (d *WavDecoder) Decode(reader io.Reader) (*AudioData, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty WAV", ErrInvalidData)
	}

	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("%w: WAV header: %v", ErrInvalidData, err)
	}

	channels, rate, bits := int(format.NumChannels), int(format.SampleRate), int(format.BitsPerSample)
	if err := checkLayout("WAV", channels, rate, bits); err != nil {
		return nil, err
	}

	var interleaved []int
	for {
		samples, err := r.ReadSamples()
		if errors.Is(err, io.EOF) || (err == nil && len(samples) == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: WAV samples: %v", ErrReadFailure, err)
		}
		for _, s := range samples {
			interleaved = append(interleaved, s.Values[:channels]...)
		}
	}
	if len(interleaved) == 0 {
		return nil, fmt.Errorf("%w: WAV has no samples", ErrInvalidData)
	}

	slog.Debug("WAV decoded", "channels", channels, "sample_rate", rate, "bits", bits, "samples", len(interleaved))
	return &AudioData{
		Frames:     framesFromInterleaved(interleaved, channels, bits),
		Channels:   channels,
		SampleRate: rate,
	}, nil
}
