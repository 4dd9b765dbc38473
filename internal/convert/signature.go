package convert

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/spf13/afero"
)

// ReadMagic returns up to n leading bytes of a file. Any I/O failure yields
// nil so that signature checks treat unreadable files as non-matching.
func ReadMagic(fsys afero.Fs, path string, n int) []byte {
	f, err := fsys.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil
	}
	return buf[:read]
}

// HasMagic reports whether the file starts with any of the given signatures
func HasMagic(fsys afero.Fs, path string, signatures ...[]byte) bool {
	longest := 0
	for _, sig := range signatures {
		if len(sig) > longest {
			longest = len(sig)
		}
	}

	head := ReadMagic(fsys, path, longest)
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig) {
			return true
		}
	}
	return false
}

// Hash40 is the engine's 40 bit name hash: crc32 in the low bits and the
// string length above them
func Hash40(s string) uint64 {
	return uint64(len(s))<<32 | uint64(crc32.ChecksumIEEE([]byte(s)))
}

// HasHash40Tag reports whether a file starts with the little-endian hash40 of tag
func HasHash40Tag(fsys afero.Fs, path, tag string) bool {
	head := ReadMagic(fsys, path, 8)
	if len(head) < 8 {
		return false
	}
	return binary.LittleEndian.Uint64(head)&0xFF_FFFF_FFFF == Hash40(tag)
}
