package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder reads MPEG-1/2 layer III
type Mp3Decoder struct{}

func NewMp3Decoder() *Mp3Decoder {
	return &Mp3Decoder{}
}

func (d *Mp3Decoder) FormatName() string { return "MP3" }

func (d *Mp3Decoder) Extensions() []string { return []string{"mp3"} }

func (d *Mp3Decoder) MimeTypes() []string { return []string{"audio/mpeg"} }

// Decode returns stereo frames; go-mp3 always yields 16-bit little-endian stereo
func (d *Mp3Decoder) Decode(reader io.Reader) (*AudioData, error) {
	dec, err := mp3.NewDecoder(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: MP3 stream: %v", ErrInvalidData, err)
	}
	if dec.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: MP3 sample rate %d", ErrInvalidData, dec.SampleRate())
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: MP3 frames: %v", ErrReadFailure, err)
	}
	if len(pcm) < 4 {
		return nil, fmt.Errorf("%w: MP3 has no frames", ErrInvalidData)
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return &AudioData{
		Frames:     framesFromInterleaved(samples, 2, 16),
		Channels:   2,
		SampleRate: dec.SampleRate(),
	}, nil
}
