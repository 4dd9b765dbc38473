package audio

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/youpy/go-wav"
)

// EncodeWav16 writes data as 16-bit PCM WAV with data.Channels channels
func EncodeWav16(w io.Writer, data *AudioData) error {
	channels := data.Channels
	if channels < 1 || channels > 2 {
		return fmt.Errorf("cannot encode %d channels: %w", channels, ErrUnsupportedFormat)
	}

	slog.Debug("encoding 16-bit WAV",
		"frames", data.NumFrames(),
		"channels", channels,
		"sample_rate", data.SampleRate)

	writer := wav.NewWriter(w, uint32(len(data.Frames)), uint16(channels), uint32(data.SampleRate), 16)

	samples := make([]wav.Sample, len(data.Frames))
	for i, f := range data.Frames {
		samples[i].Values[0] = toInt16(f[0])
		if channels == 2 {
			samples[i].Values[1] = toInt16(f[1])
		}
	}

	if err := writer.WriteSamples(samples); err != nil {
		slog.Error("failed to write WAV samples", "error", err)
		return fmt.Errorf("write wav samples: %w", err)
	}
	return nil
}

func toInt16(v float64) int {
	s := math.Round(v * math.MaxInt16)
	return int(math.Max(math.MinInt16, math.Min(math.MaxInt16, s)))
}
