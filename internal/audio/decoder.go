package audio

import (
	"errors"
	"fmt"
	"io"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// AudioData is decoded audio as normalized frames in [-1, 1].
// Mono sources carry the same value in both frame slots.
type AudioData struct {
	Frames     [][2]float64
	Channels   int // channel count of the source
	SampleRate int // frames per second
}

// NumFrames returns the length in sample frames
func (a *AudioData) NumFrames() int {
	return len(a.Frames)
}

// DurationMs returns the length in milliseconds
func (a *AudioData) DurationMs() int {
	if a.SampleRate == 0 {
		return 0
	}
	return len(a.Frames) * 1000 / a.SampleRate
}

// Decoder reads one container format into frames
type Decoder interface {
	FormatName() string

	// Extensions lists the lower-case file extensions, without the dot
	Extensions() []string

	// MimeTypes lists the types content sniffing reports for this format
	MimeTypes() []string

	Decode(reader io.Reader) (*AudioData, error)
}

// checkLayout rejects channel counts, rates and bit depths the pipeline cannot carry
func checkLayout(format string, channels, sampleRate, bitDepth int) error {
	if channels < 1 || channels > 2 || sampleRate <= 0 {
		return fmt.Errorf("%w: %s with %d channels at %d Hz", ErrInvalidData, format, channels, sampleRate)
	}
	switch bitDepth {
	case 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: %d-bit %s", ErrUnsupportedFormat, bitDepth, format)
}

// framesFromInterleaved builds frames from interleaved integer samples of the given bit depth
func framesFromInterleaved(samples []int, channels, bitDepth int) [][2]float64 {
	scale := float64(int64(1) << (bitDepth - 1))
	frames := make([][2]float64, len(samples)/channels)
	for i := range frames {
		left := float64(samples[i*channels]) / scale
		right := left
		if channels > 1 {
			right = float64(samples[i*channels+1]) / scale
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}
