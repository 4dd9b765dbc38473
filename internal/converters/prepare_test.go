package converters

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jam1garner/discord-forge/internal/audio"
	"github.com/jam1garner/discord-forge/internal/convert"
	"github.com/jam1garner/discord-forge/internal/looprange"
)

func TestPrepareAudio(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/in/bgm.wav", sineWav(t, audio.TargetRate, 4800), 0o644))

	prepared, err := PrepareAudio(fsys, audio.NewDefaultRegistry(), "/in/bgm.wav", "0:00.01-0:00.05", 8)
	require.NoError(t, err)
	assert.Equal(t, 2, prepared.Source.Channels)
	assert.Equal(t, 4800, prepared.Source.NumFrames())
	assert.Equal(t, 1, prepared.Encoded.Channels)
	assert.Equal(t, audio.TargetRate, prepared.Encoded.SampleRate)
	assert.Equal(t, looprange.Range{Start: 480, End: 2400}, prepared.Loop)
}

func TestPrepareAudioResamples(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/in/bgm.wav", sineWav(t, 44100, 4410), 0o644))

	prepared, err := PrepareAudio(fsys, audio.NewDefaultRegistry(), "/in/bgm.wav", "", 8)
	require.NoError(t, err)
	assert.Equal(t, 44100, prepared.Source.SampleRate)
	assert.Equal(t, audio.TargetRate, prepared.Encoded.SampleRate)
	assert.Equal(t, uint64(0), prepared.Loop.Start)
	assert.Equal(t, uint64(prepared.Encoded.NumFrames()), prepared.Loop.End)
}

func TestPrepareAudioErrors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/in/bgm.wav", sineWav(t, audio.TargetRate, 4800), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/in/junk.wav", []byte("not a wav file"), 0o644))

	tests := []struct {
		name   string
		path   string
		option string
		kind   convert.Kind
	}{
		{"missing file", "/in/gone.wav", "", convert.KindIO},
		{"undecodable", "/in/junk.wav", "", convert.KindAudio},
		{"bad option", "/in/bgm.wav", "soon", convert.KindOption},
		{"past the end", "/in/bgm.wav", "0-99999", convert.KindAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrepareAudio(fsys, audio.NewDefaultRegistry(), tt.path, tt.option, 8)
			require.Error(t, err)
			kind, ok := convert.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
