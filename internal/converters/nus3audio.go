package converters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/afero"

	"github.com/jam1garner/discord-forge/internal/audio"
	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
	"github.com/jam1garner/discord-forge/internal/looprange"
	"github.com/jam1garner/discord-forge/internal/nus3"
)

// lopusExt is raw namco opus, wrapped into a container without re-encoding
const lopusExt = "lopus"

// audioExts are the inputs the decoders can read
var audioExts = []string{"wav", "wave", "aif", "aiff", "mp3"}

// Nus3Audio encodes audio into single-entry nus3audio containers with loop
// points and extracts the first entry of a container back to wav
type Nus3Audio struct {
	Deps
	decoders *audio.DecoderRegistry
}

// NewNus3Audio creates the audio converter
func NewNus3Audio(d Deps) *Nus3Audio {
	return &Nus3Audio{Deps: d, decoders: audio.NewDefaultRegistry()}
}

func (n *Nus3Audio) Name() string { return "nus3audio" }

func (n *Nus3Audio) Formats() convert.Formats {
	return convert.Formats{
		Human:  append(append([]string{}, audioExts...), lopusExt),
		Binary: []string{"nus3audio"},
	}
}

func (n *Nus3Audio) Classify(ext, path string) convert.Direction {
	if ext == "nus3audio" {
		return convert.ConvertFrom
	}
	if ext == lopusExt || slices.Contains(audioExts, ext) {
		return convert.ConvertTo
	}
	return convert.NoMatch
}

// ConvertTo writes <stem>.nus3audio beside path. Decodable audio is
// resampled to 48 kHz mono and encoded to looping opus; option selects the
// loop range.
func (n *Nus3Audio) ConvertTo(ctx context.Context, path, option string) (string, error) {
	stem := convert.Stem(path)

	var payload []byte
	var err error
	if convert.Extension(path) == lopusExt {
		payload, err = afero.ReadFile(n.Fs, path)
		if err != nil {
			return "", convert.Wrap(convert.KindIO, fmt.Errorf("read %s: %w", path, err))
		}
	} else {
		payload, err = n.encodeOpus(ctx, path, option)
		if err != nil {
			return "", err
		}
	}

	out := convert.ReplaceExt(path, "nus3audio")
	if err := writeContainer(n.Fs, out, nus3.Single(stem, payload)); err != nil {
		return "", convert.Wrap(convert.KindIO, err)
	}

	slog.Info("audio container written", "output", out, "entry", stem, "payload_bytes", len(payload))
	return out, nil
}

// PreparedAudio is an input decoded, resampled for encoding and with its
// loop range resolved against the resampled length
type PreparedAudio struct {
	Source  *audio.AudioData
	Encoded *audio.AudioData
	Loop    looprange.Range
}

// PrepareAudio decodes path, resamples it to the encoding rate and resolves
// option to a loop range. Errors are classified.
func PrepareAudio(fsys afero.Fs, decoders *audio.DecoderRegistry, path, option string, quality int) (*PreparedAudio, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, convert.Wrap(convert.KindIO, fmt.Errorf("open %s: %w", path, err))
	}
	decoded, err := decoders.DecodeFile(path, f)
	f.Close()
	if err != nil {
		return nil, convert.Wrap(convert.KindAudio, fmt.Errorf("decode %s: %w", filepath.Base(path), err))
	}
	if decoded.NumFrames() == 0 {
		return nil, convert.Errorf(convert.KindAudio, "%s contains no audio", filepath.Base(path))
	}

	resampled, err := audio.Resample(decoded, audio.TargetRate, quality)
	if err != nil {
		return nil, convert.Wrap(convert.KindAudio, fmt.Errorf("resample: %w", err))
	}

	// loop points given in samples refer to the source rate
	total := uint64(resampled.NumFrames())
	rate := float64(resampled.NumFrames()) / float64(decoded.NumFrames())
	loop, err := looprange.Resolve(option, total, rate)
	if err != nil {
		return nil, classifyLoopError(err)
	}

	slog.Debug("audio prepared",
		"path", path,
		"source_rate", decoded.SampleRate,
		"source_frames", decoded.NumFrames(),
		"duration_ms", decoded.DurationMs(),
		"frames", total,
		"loop", loop.String())
	return &PreparedAudio{Source: decoded, Encoded: resampled, Loop: loop}, nil
}

// encodeOpus prepares the audio and runs the encoder, returning its payload
func (n *Nus3Audio) encodeOpus(ctx context.Context, path, option string) ([]byte, error) {
	prepared, err := PrepareAudio(n.Fs, n.decoders, path, option, n.Config.Audio.ResampleQuality)
	if err != nil {
		return nil, err
	}
	resampled, loop := prepared.Encoded, prepared.Loop

	var wav bytes.Buffer
	if err := audio.EncodeWav16(&wav, resampled); err != nil {
		return nil, convert.Wrap(convert.KindAudio, fmt.Errorf("encode wav: %w", err))
	}

	staged, err := n.Staging.Write(convert.Stem(path)+".wav", wav.Bytes())
	if err != nil {
		return nil, convert.Wrap(convert.KindIO, err)
	}
	defer staged.Release()

	lopus := convert.ReplaceExt(staged.Path, lopusExt)
	err = n.tool(ctx, config.ToolVGAudio,
		"-c", staged.Path, lopus,
		"--bitrate", strconv.Itoa(n.Config.Audio.Bitrate),
		"--CBR",
		"--opusheader", "namco",
		"-l", loop.String())
	if err != nil {
		return nil, err
	}

	payload, err := afero.ReadFile(n.Fs, lopus)
	if err != nil {
		slog.Error("encoder produced no output", "path", lopus, "error", err)
		return nil, convert.Errorf(convert.KindTool, "audio encoder did not produce %s", filepath.Base(lopus))
	}

	slog.Debug("audio encoded", "path", path, "payload_bytes", len(payload), "loop", loop.String())
	return payload, nil
}

// ConvertFrom extracts the first entry to staging and decodes it to
// <entry>.wav beside path
func (n *Nus3Audio) ConvertFrom(ctx context.Context, path, _ string) (string, error) {
	data, err := afero.ReadFile(n.Fs, path)
	if err != nil {
		return "", convert.Wrap(convert.KindIO, fmt.Errorf("read %s: %w", path, err))
	}

	entry, err := nus3.Decode(data)
	if err != nil {
		slog.Error("failed to read audio container", "path", path, "error", err)
		return "", convert.Wrap(convert.KindAudio, err)
	}

	staged, err := n.Staging.Write(entry.Filename(), entry.Data)
	if err != nil {
		return "", convert.Wrap(convert.KindIO, err)
	}
	defer staged.Release()

	name := filepath.Base(entry.Name)
	if entry.Name == "" || name == "." || name == string(filepath.Separator) {
		name = convert.Stem(path)
	}
	out := filepath.Join(filepath.Dir(path), name+".wav")

	if err := n.tool(ctx, config.ToolVGAudio, "-c", staged.Path, out); err != nil {
		return "", err
	}
	return out, nil
}

func writeContainer(fsys afero.Fs, path string, file *nus3.File) error {
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := file.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func classifyLoopError(err error) error {
	var exceeds *looprange.ExceedsError
	var inverted *looprange.InvertedError
	switch {
	case errors.Is(err, looprange.ErrFormat):
		return convert.Wrap(convert.KindOption, err)
	case errors.As(err, &exceeds), errors.As(err, &inverted):
		return convert.Wrap(convert.KindAudio, err)
	default:
		return convert.Wrap(convert.KindOption, err)
	}
}
