package convert

import (
	"encoding/binary"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMagic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/a.byml", []byte("BY\x00\x02rest"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/short.byml", []byte("B"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/empty.byml", nil, 0o644))

	assert.Equal(t, []byte("BY\x00\x02"), ReadMagic(fsys, "/a.byml", 4))
	assert.Equal(t, []byte("B"), ReadMagic(fsys, "/short.byml", 4))
	assert.Nil(t, ReadMagic(fsys, "/empty.byml", 4))
	assert.Nil(t, ReadMagic(fsys, "/missing.byml", 4))
}

func TestHasMagic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/le.byml", []byte("YB\x03\x00"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/yaz.byml", []byte("Yaz0\x00\x00\x01\x00"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/text.byml", []byte("hello"), 0o644))

	sigs := [][]byte{[]byte("BY"), []byte("YB"), []byte("Yaz0")}
	assert.True(t, HasMagic(fsys, "/le.byml", sigs...))
	assert.True(t, HasMagic(fsys, "/yaz.byml", sigs...))
	assert.False(t, HasMagic(fsys, "/text.byml", sigs...))
	assert.False(t, HasMagic(fsys, "/missing.byml", sigs...))
}

func TestHash40(t *testing.T) {
	// crc32("motion") = 0xf5fea1e8
	assert.Equal(t, uint64(0x06_f5fe_a1e8), Hash40("motion"))
}

func TestHasHash40Tag(t *testing.T) {
	fsys := afero.NewMemMapFs()

	header := make([]byte, 16)
	binary.LittleEndian.PutUint64(header, Hash40("motion")|0xAB<<56)
	require.NoError(t, afero.WriteFile(fsys, "/motion_list.bin", header, 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/other.bin", []byte("0123456789abcdef"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/tiny.bin", []byte{1, 2}, 0o644))

	assert.True(t, HasHash40Tag(fsys, "/motion_list.bin", "motion"), "upper bits are ignored")
	assert.False(t, HasHash40Tag(fsys, "/other.bin", "motion"))
	assert.False(t, HasHash40Tag(fsys, "/tiny.bin", "motion"))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "nus3audio", Extension("/tmp/bgm.nus3audio"))
	assert.Equal(t, "", Extension("/tmp/README"))
	assert.Equal(t, "bin", Extension("motion_list.bin"))
	assert.Equal(t, "/tmp/bgm.wav", ReplaceExt("/tmp/bgm.nus3audio", "wav"))
	assert.Equal(t, "bgm", Stem("/tmp/bgm.nus3audio"))
}
