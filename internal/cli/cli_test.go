package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jam1garner/discord-forge/internal/audio"
	"github.com/jam1garner/discord-forge/internal/toolrun"
)

// newTestCLI returns a CLI on an in-memory filesystem whose tools write
// the file named after "-o"
func newTestCLI(t *testing.T) (*CLI, afero.Fs) {
	t.Helper()

	originalHandler := slog.Default().Handler()
	t.Cleanup(func() { slog.SetDefault(slog.New(originalHandler)) })

	fsys := afero.NewMemMapFs()
	c := newCLI(fsys)
	c.runner = toolrun.Func(func(ctx context.Context, tool string, args ...string) (toolrun.Result, error) {
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				return toolrun.Result{}, afero.WriteFile(fsys, args[i+1], []byte("converted"), 0o644)
			}
		}
		return toolrun.Result{ExitCode: 1, Stderr: []byte("unexpected invocation")}, nil
	})
	return c, fsys
}

func run(c *CLI, args ...string) (int, string, string) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := c.Run(append([]string{"forge"}, args...), strings.NewReader(""), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI(t *testing.T) {
	c := NewCLI()
	require.NotNil(t, c.rootCmd)
	assert.Equal(t, "forge", c.rootCmd.Use)

	var names []string
	for _, cmd := range c.rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"config", "convert", "formats", "loop-points", "staging"})
}

func TestVersion(t *testing.T) {
	c, _ := newTestCLI(t)

	for _, flag := range []string{"--version", "-v"} {
		code, stdout, _ := run(c, flag)
		assert.Equal(t, 0, code)
		assert.Equal(t, "forge version "+Version+"\n", stdout)
	}
}

func TestConvertCommand(t *testing.T) {
	c, fsys := newTestCLI(t)
	require.NoError(t, afero.WriteFile(fsys, "/in/fighter.prc", []byte("prc"), 0o644))

	code, stdout, stderr := run(c, "convert", "/in/fighter.prc")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "fighter.prc -> /in/fighter.xml (9 B)")

	exists, _ := afero.Exists(fsys, "/in/fighter.prc")
	assert.False(t, exists, "input is consumed")
}

func TestConvertKeep(t *testing.T) {
	c, fsys := newTestCLI(t)
	require.NoError(t, afero.WriteFile(fsys, "/in/fighter.prc", []byte("original"), 0o600))

	code, _, stderr := run(c, "convert", "--keep", "/in/fighter.prc")
	require.Equal(t, 0, code, stderr)

	data, err := afero.ReadFile(fsys, "/in/fighter.prc")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	exists, _ := afero.Exists(fsys, "/in/fighter.xml")
	assert.True(t, exists)
}

func TestConvertBatchContinuesAfterFailure(t *testing.T) {
	c, fsys := newTestCLI(t)
	require.NoError(t, afero.WriteFile(fsys, "/in/notes.txt", []byte("hello"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/in/fighter.prc", []byte("prc"), 0o644))

	code, stdout, stderr := run(c, "convert", "/in/notes.txt", "/in/fighter.prc")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "notes.txt: Unsupported Filetype. Supported types:")
	assert.Contains(t, stdout, "fighter.prc -> /in/fighter.xml")
	assert.Contains(t, stderr, "1 of 2 conversions failed")
}

func TestConvertJobsKeepsInputOrder(t *testing.T) {
	c, fsys := newTestCLI(t)
	names := []string{"a", "b", "c", "d"}
	var args []string
	for _, name := range names {
		path := "/in/" + name + ".prc"
		require.NoError(t, afero.WriteFile(fsys, path, []byte("prc"), 0o644))
		args = append(args, path)
	}

	code, stdout, stderr := run(c, append([]string{"convert", "-j", "3"}, args...)...)
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, len(names))
	for i, name := range names {
		assert.Contains(t, lines[i], name+".prc -> /in/"+name+".xml")
	}
}

func TestConvertRejectsZeroJobs(t *testing.T) {
	c, fsys := newTestCLI(t)
	require.NoError(t, afero.WriteFile(fsys, "/in/fighter.prc", []byte("prc"), 0o644))

	code, _, stderr := run(c, "convert", "--jobs", "0", "/in/fighter.prc")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--jobs must be at least 1")

	exists, _ := afero.Exists(fsys, "/in/fighter.prc")
	assert.True(t, exists, "nothing is dispatched")
}

func TestConvertRequiresFiles(t *testing.T) {
	c, _ := newTestCLI(t)
	code, _, _ := run(c, "convert")
	assert.Equal(t, 1, code)
}

func TestFormatsCommand(t *testing.T) {
	c, _ := newTestCLI(t)

	code, stdout, stderr := run(c, "formats")
	require.Equal(t, 0, code, stderr)
	for _, want := range []string{"CONVERTER", "param", "prc stprm stdat", "nus3audio", "wav wave aif aiff mp3 lopus", "byml"} {
		assert.Contains(t, stdout, want)
	}
	assert.Less(t, strings.Index(stdout, "param"), strings.Index(stdout, "byml"), "rows follow dispatch order")
}

func TestInvalidLogLevel(t *testing.T) {
	c, _ := newTestCLI(t)
	code, _, stderr := run(c, "formats", "--log-level", "loud")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid log level")
}

func TestMissingConfigFileFallsBackToDefaults(t *testing.T) {
	c, _ := newTestCLI(t)
	code, _, stderr := run(c, "formats", "--config", "/nowhere/config.json")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "using defaults")
}

func TestConfigInit(t *testing.T) {
	c, fsys := newTestCLI(t)

	code, stdout, stderr := run(c, "config", "init", "--path", "/cfg/forge.toml")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Wrote default configuration to /cfg/forge.toml")

	cfg, err := c.configManager.LoadFromFile("/cfg/forge.toml")
	require.NoError(t, err)
	assert.Equal(t, c.configManager.GetDefaultConfig().Tools, cfg.Tools)

	code, _, stderr = run(c, "config", "init", "--path", "/cfg/forge.toml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, _, stderr = run(c, "config", "init", "--path", "/cfg/forge.toml", "--overwrite")
	assert.Equal(t, 0, code, stderr)

	exists, _ := afero.Exists(fsys, "/cfg/forge.toml")
	assert.True(t, exists)
}

func TestStagingPrune(t *testing.T) {
	c, fsys := newTestCLI(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, fsys.MkdirAll("/scratch/stale", 0o755))
	require.NoError(t, fsys.MkdirAll("/scratch/fresh", 0o755))
	require.NoError(t, fsys.Chtimes("/scratch/stale", now.Add(-3*time.Hour), now.Add(-3*time.Hour)))
	require.NoError(t, fsys.Chtimes("/scratch/fresh", now.Add(-time.Minute), now.Add(-time.Minute)))

	code, stdout, stderr := run(c, "staging", "prune", "--staging-dir", "/scratch", "--older-than", "2 hours ago")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Removed 1 staged entries from /scratch")

	exists, _ := afero.DirExists(fsys, "/scratch/stale")
	assert.False(t, exists)
	exists, _ = afero.DirExists(fsys, "/scratch/fresh")
	assert.True(t, exists)
}

func TestLoopPointsCommand(t *testing.T) {
	c, fsys := newTestCLI(t)

	data := &audio.AudioData{Channels: 1, SampleRate: audio.TargetRate, Frames: make([][2]float64, 4800)}
	var wav bytes.Buffer
	require.NoError(t, audio.EncodeWav16(&wav, data))
	require.NoError(t, afero.WriteFile(fsys, "/in/loop.wav", wav.Bytes(), 0o644))

	code, stdout, stderr := run(c, "loop-points", "/in/loop.wav", "--option", "0:00.01-0:00.05")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "encoded: 48000 Hz, 4800 samples")
	assert.Contains(t, stdout, "loop:    480-2400 (0:00.010 to 0:00.050, 1920 samples)")

	exists, _ := afero.Exists(fsys, "/in/loop.wav")
	assert.True(t, exists, "loop-points never consumes the file")

	code, _, stderr = run(c, "loop-points", "/in/loop.wav", "--option", "0-99999")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "only 4800 samples")
}

func TestSampleTime(t *testing.T) {
	assert.Equal(t, "0:00.000", sampleTime(0))
	assert.Equal(t, "0:01.500", sampleTime(72000))
	assert.Equal(t, "1:30.000", sampleTime(90*48000))
}
