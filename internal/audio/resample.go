package audio

import (
	"fmt"
	"log/slog"

	"github.com/gopxl/beep"
)

// TargetRate is the sample rate the game's audio tooling expects
const TargetRate = 48000

// DefaultResampleQuality is the beep resampler quality used when none is configured
const DefaultResampleQuality = 4

// frameStreamer streams a fixed slice of frames
type frameStreamer struct {
	frames [][2]float64
	pos    int
}

func (s *frameStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n := copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *frameStreamer) Err() error {
	return nil
}

// Mono averages both channels into a single channel
func Mono(data *AudioData) *AudioData {
	frames := make([][2]float64, len(data.Frames))
	for i, f := range data.Frames {
		m := (f[0] + f[1]) / 2
		frames[i] = [2]float64{m, m}
	}
	return &AudioData{Frames: frames, Channels: 1, SampleRate: data.SampleRate}
}

// Resample converts data to mono at rate using beep's resampler. quality
// must be between 1 and 64; higher is slower and more accurate.
func Resample(data *AudioData, rate, quality int) (*AudioData, error) {
	slog.Debug("resampling audio",
		"from_rate", data.SampleRate,
		"to_rate", rate,
		"channels", data.Channels,
		"frames", data.NumFrames(),
		"quality", quality)

	if data.SampleRate <= 0 || rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate conversion %d -> %d: %w", data.SampleRate, rate, ErrInvalidData)
	}
	if quality < 1 || quality > 64 {
		return nil, fmt.Errorf("resample quality %d out of range 1-64", quality)
	}

	mono := Mono(data)
	if data.SampleRate == rate {
		return mono, nil
	}

	resampler := beep.Resample(quality, beep.SampleRate(data.SampleRate), beep.SampleRate(rate),
		&frameStreamer{frames: mono.Frames})

	expected := int(float64(len(mono.Frames)) * float64(rate) / float64(data.SampleRate))
	out := make([][2]float64, 0, expected+512)
	buf := make([][2]float64, 512)
	for {
		n, ok := resampler.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			break
		}
	}
	if err := resampler.Err(); err != nil {
		slog.Error("resampler failed", "error", err)
		return nil, fmt.Errorf("resample: %w", err)
	}

	result := &AudioData{Frames: out, Channels: 1, SampleRate: rate}

	slog.Info("audio resampled",
		"from_rate", data.SampleRate,
		"to_rate", rate,
		"frames_in", data.NumFrames(),
		"frames_out", result.NumFrames())

	return result, nil
}
