package archive

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jam1garner/discord-forge/internal/yaz0"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSarc(order binary.ByteOrder) *Sarc {
	return &Sarc{
		ByteOrder: order,
		Entries: []Entry{
			{Name: "Actor/ActorLink/Enemy_Bokoblin.bxml", Data: []byte("actor link data")},
			{Name: "Model/Enemy_Bokoblin.bfres", Data: bytes.Repeat([]byte{0xAB}, 300)},
			{Name: "empty.txt", Data: nil},
		},
	}
}

func byName(entries []Entry) map[string][]byte {
	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Data
	}
	return out
}

func TestSarcRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			src := sampleSarc(order)
			parsed, err := ReadSarc(src.Bytes())
			require.NoError(t, err)

			assert.Equal(t, order, parsed.ByteOrder)
			require.Len(t, parsed.Entries, 3)

			got := byName(parsed.Entries)
			for _, e := range src.Entries {
				assert.Equal(t, len(e.Data), len(got[e.Name]), e.Name)
				assert.True(t, bytes.Equal(e.Data, got[e.Name]), e.Name)
			}
		})
	}
}

func TestSarcNodesSortedByHash(t *testing.T) {
	parsed, err := ReadSarc(sampleSarc(binary.LittleEndian).Bytes())
	require.NoError(t, err)

	for i := 1; i < len(parsed.Entries); i++ {
		assert.Less(t, NameHash(parsed.Entries[i-1].Name), NameHash(parsed.Entries[i].Name))
	}
}

func TestSarcUnnamedEntriesGetPositionalNames(t *testing.T) {
	s := &Sarc{Entries: []Entry{{Name: "a.txt", Data: []byte("a")}, {Data: []byte("b")}}}
	parsed, err := ReadSarc(s.Bytes())
	require.NoError(t, err)

	got := byName(parsed.Entries)
	assert.Equal(t, []byte("b"), got["1.bin"])
	assert.Equal(t, "1.bin", FallbackName(1))
}

func TestReadSarcYaz0Wrapped(t *testing.T) {
	raw := sampleSarc(binary.BigEndian).Bytes()
	compressed := yaz0.Compress(raw)

	assert.True(t, IsSarc(compressed))
	parsed, err := ReadSarc(compressed)
	require.NoError(t, err)
	assert.Len(t, parsed.Entries, 3)
	assert.Equal(t, binary.BigEndian, parsed.ByteOrder)
}

func TestReadSarcErrors(t *testing.T) {
	_, err := ReadSarc([]byte("not an archive at all"))
	assert.ErrorIs(t, err, ErrInvalidSarc)

	raw := sampleSarc(binary.LittleEndian).Bytes()
	badBOM := append([]byte(nil), raw...)
	badBOM[6], badBOM[7] = 0, 0
	_, err = ReadSarc(badBOM)
	assert.ErrorIs(t, err, ErrInvalidSarc)

	_, err = ReadSarc(raw[:0x20])
	assert.ErrorIs(t, err, ErrInvalidSarc)
}

func TestNameHash(t *testing.T) {
	assert.Equal(t, uint32(0), NameHash(""))
	assert.Equal(t, uint32('a'), NameHash("a"))
	assert.Equal(t, uint32('a')*hashKey+uint32('b'), NameHash("ab"))
}
