package staging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRelease(t *testing.T) {
	fsys := afero.NewMemMapFs()
	area := New(fsys, "/tmp/converter", nil)

	f, err := area.Write("bgm.wav", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "bgm.wav", filepath.Base(f.Path))
	assert.Equal(t, "/tmp/converter", filepath.Dir(filepath.Dir(f.Path)))

	data, err := afero.ReadFile(fsys, f.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)

	// tool side output beside the staged file goes with it
	sibling := filepath.Join(filepath.Dir(f.Path), "bgm.lopus")
	require.NoError(t, afero.WriteFile(fsys, sibling, []byte("opus"), 0o644))

	require.NoError(t, f.Release())
	require.NoError(t, f.Release(), "release is idempotent")

	for _, p := range []string{f.Path, sibling, filepath.Dir(f.Path)} {
		exists, _ := afero.Exists(fsys, p)
		assert.False(t, exists, p)
	}
}

func TestSameNameDoesNotCollide(t *testing.T) {
	fsys := afero.NewMemMapFs()
	area := New(fsys, "/stage", NopLocker{})

	a, err := area.Write("entry.lopus", []byte("a"))
	require.NoError(t, err)
	defer a.Release()
	b, err := area.Write("entry.lopus", []byte("b"))
	require.NoError(t, err)
	defer b.Release()

	assert.NotEqual(t, a.Path, b.Path)
	data, _ := afero.ReadFile(fsys, a.Path)
	assert.Equal(t, []byte("a"), data)
}

func TestReserveDoesNotCreateFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	area := New(fsys, "/stage", nil)

	f, err := area.Reserve("/some/dir/out.lopus")
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, "out.lopus", filepath.Base(f.Path))
	exists, _ := afero.Exists(fsys, f.Path)
	assert.False(t, exists)
	dirExists, _ := afero.DirExists(fsys, filepath.Dir(f.Path))
	assert.True(t, dirExists)
}

func TestPrune(t *testing.T) {
	fsys := afero.NewMemMapFs()
	area := New(fsys, "/stage", nil)

	old, err := area.Write("old.wav", []byte("old"))
	require.NoError(t, err)
	fresh, err := area.Write("fresh.wav", []byte("fresh"))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, filepath.Join("/stage", LockFileName), nil, 0o644))

	now := time.Now()
	require.NoError(t, fsys.Chtimes(filepath.Dir(old.Path), now.Add(-3*time.Hour), now.Add(-3*time.Hour)))
	require.NoError(t, fsys.Chtimes(filepath.Join("/stage", LockFileName), now.Add(-3*time.Hour), now.Add(-3*time.Hour)))

	removed, err := area.Prune(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, _ := afero.Exists(fsys, old.Path)
	assert.False(t, exists)
	exists, _ = afero.Exists(fsys, fresh.Path)
	assert.True(t, exists)
	exists, _ = afero.Exists(fsys, filepath.Join("/stage", LockFileName))
	assert.True(t, exists, "lock file is never pruned")
}

func TestPruneMissingDirectory(t *testing.T) {
	area := New(afero.NewMemMapFs(), "/nowhere", nil)
	removed, err := area.Prune(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestFileLockOnDisk(t *testing.T) {
	dir := t.TempDir()
	lock := NewFileLock(filepath.Join(dir, LockFileName))
	area := New(afero.NewOsFs(), dir, lock)

	f, err := area.Write("x.bin", []byte{1})
	require.NoError(t, err)
	require.NoError(t, f.Release())

	removed, err := area.Prune(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
