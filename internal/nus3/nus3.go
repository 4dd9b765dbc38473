// Package nus3 reads and writes nus3audio containers, the engine's wrapper
// around one or more named raw audio payloads.
package nus3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

var (
	ErrInvalidMagic = errors.New("not a nus3audio file")
	ErrInvalidData  = errors.New("malformed nus3audio file")
	ErrNoEntries    = errors.New("nus3audio file contains no audio entries")
)

const (
	sectionHeaderSize = 8
	audiindxSize      = 16 // eight byte tag, size, entry count
	payloadAlign      = 0x10
)

var le = binary.LittleEndian

// Entry is one named payload inside the container
type Entry struct {
	ID   uint32
	Name string
	Data []byte
}

// Filename returns the entry name with an extension derived from the payload magic
func (e Entry) Filename() string {
	switch {
	case len(e.Data) >= 4 && le.Uint32(e.Data) == 0x80000001:
		return e.Name + ".lopus"
	case bytes.HasPrefix(e.Data, []byte("IDSP")):
		return e.Name + ".idsp"
	default:
		return e.Name + ".bin"
	}
}

// File is an ordered set of entries
type File struct {
	Entries []Entry
}

// layout holds every section size so CalcSize and Bytes agree
type layout struct {
	tnnmSize int
	junkSize int
	packSize int
	total    int
}

func (f *File) layout() layout {
	n := len(f.Entries)
	var l layout

	for _, e := range f.Entries {
		l.tnnmSize += len(e.Name) + 1
		l.packSize += alignUp(len(e.Data), payloadAlign)
	}
	l.tnnmSize = alignUp(l.tnnmSize, 4)

	size := sectionHeaderSize + // NUS3
		audiindxSize +
		sectionHeaderSize + n*4 + // TNID
		sectionHeaderSize + n*4 + // NMOF
		sectionHeaderSize + n*8 + // ADOF
		sectionHeaderSize + l.tnnmSize

	// JUNK pads so the first payload lands on a 16 byte boundary
	l.junkSize = alignUp(size+2*sectionHeaderSize, payloadAlign) - (size + 2*sectionHeaderSize)
	size += sectionHeaderSize + l.junkSize

	l.total = size + sectionHeaderSize + l.packSize
	return l
}

// CalcSize returns the exact serialized size of the container
func (f *File) CalcSize() int {
	return f.layout().total
}

// Bytes serializes the container into a buffer allocated once at its final size
func (f *File) Bytes() []byte {
	l := f.layout()
	n := len(f.Entries)
	buf := make([]byte, 0, l.total)

	buf = append(buf, "NUS3"...)
	buf = le.AppendUint32(buf, uint32(l.total-sectionHeaderSize))

	buf = append(buf, "AUDIINDX"...)
	buf = le.AppendUint32(buf, 4)
	buf = le.AppendUint32(buf, uint32(n))

	buf = append(buf, "TNID"...)
	buf = le.AppendUint32(buf, uint32(n*4))
	for _, e := range f.Entries {
		buf = le.AppendUint32(buf, e.ID)
	}

	// name and payload offsets are absolute
	namesStart := len(buf) + (sectionHeaderSize + n*4) + (sectionHeaderSize + n*8) + sectionHeaderSize
	packStart := namesStart + l.tnnmSize + sectionHeaderSize + l.junkSize + sectionHeaderSize

	buf = append(buf, "NMOF"...)
	buf = le.AppendUint32(buf, uint32(n*4))
	off := namesStart
	for _, e := range f.Entries {
		buf = le.AppendUint32(buf, uint32(off))
		off += len(e.Name) + 1
	}

	buf = append(buf, "ADOF"...)
	buf = le.AppendUint32(buf, uint32(n*8))
	off = packStart
	for _, e := range f.Entries {
		buf = le.AppendUint32(buf, uint32(off))
		buf = le.AppendUint32(buf, uint32(len(e.Data)))
		off += alignUp(len(e.Data), payloadAlign)
	}

	buf = append(buf, "TNNM"...)
	buf = le.AppendUint32(buf, uint32(l.tnnmSize))
	written := 0
	for _, e := range f.Entries {
		buf = append(buf, e.Name...)
		buf = append(buf, 0)
		written += len(e.Name) + 1
	}
	buf = appendZeros(buf, l.tnnmSize-written)

	buf = append(buf, "JUNK"...)
	buf = le.AppendUint32(buf, uint32(l.junkSize))
	buf = appendZeros(buf, l.junkSize)

	buf = append(buf, "PACK"...)
	buf = le.AppendUint32(buf, uint32(l.packSize))
	for _, e := range f.Entries {
		buf = append(buf, e.Data...)
		buf = appendZeros(buf, alignUp(len(e.Data), payloadAlign)-len(e.Data))
	}

	return buf
}

// WriteTo writes the serialized container to w
func (f *File) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// Parse reads every entry of a serialized container
func Parse(data []byte) (*File, error) {
	if len(data) < sectionHeaderSize || string(data[:4]) != "NUS3" {
		return nil, ErrInvalidMagic
	}

	var (
		count   = -1
		ids     []uint32
		nameOff []uint32
		dataOff [][2]uint32
	)

	pos := sectionHeaderSize
	for pos+sectionHeaderSize <= len(data) {
		// AUDIINDX is the only section with an eight byte tag
		if pos+audiindxSize <= len(data) && string(data[pos:pos+8]) == "AUDIINDX" {
			count = int(le.Uint32(data[pos+12:]))
			pos += audiindxSize
			continue
		}

		tag := string(data[pos : pos+4])
		size := int(le.Uint32(data[pos+4:]))
		body := pos + sectionHeaderSize
		if body+size > len(data) {
			return nil, fmt.Errorf("%w: section %q overruns file", ErrInvalidData, tag)
		}
		section := data[body : body+size]

		switch tag {
		case "TNID":
			ids = readUint32s(section)
		case "NMOF":
			nameOff = readUint32s(section)
		case "ADOF":
			for i := 0; i+8 <= len(section); i += 8 {
				dataOff = append(dataOff, [2]uint32{le.Uint32(section[i:]), le.Uint32(section[i+4:])})
			}
		}
		pos = body + size
	}

	if count < 0 {
		return nil, fmt.Errorf("%w: missing AUDIINDX section", ErrInvalidData)
	}
	if len(ids) < count || len(nameOff) < count || len(dataOff) < count {
		return nil, fmt.Errorf("%w: index sections shorter than entry count %d", ErrInvalidData, count)
	}

	file := &File{Entries: make([]Entry, 0, count)}
	for i := 0; i < count; i++ {
		name, err := readCString(data, int(nameOff[i]))
		if err != nil {
			return nil, err
		}
		start, size := int(dataOff[i][0]), int(dataOff[i][1])
		if start < 0 || size < 0 || start+size > len(data) {
			return nil, fmt.Errorf("%w: entry %q payload out of bounds", ErrInvalidData, name)
		}
		payload := make([]byte, size)
		copy(payload, data[start:start+size])
		file.Entries = append(file.Entries, Entry{ID: ids[i], Name: name, Data: payload})
	}

	slog.Debug("nus3audio parsed", "entries", len(file.Entries), "size_bytes", len(data))
	return file, nil
}

// Single returns a container holding one entry with id 0
func Single(name string, payload []byte) *File {
	return &File{Entries: []Entry{{ID: 0, Name: name, Data: payload}}}
}

// Encode builds a single entry container with id 0
func Encode(name string, payload []byte) []byte {
	return Single(name, payload).Bytes()
}

// Decode returns the first entry of a container
func Decode(data []byte) (Entry, error) {
	f, err := Parse(data)
	if err != nil {
		return Entry{}, err
	}
	if len(f.Entries) == 0 {
		return Entry{}, ErrNoEntries
	}
	return f.Entries[0], nil
}

func readUint32s(b []byte) []uint32 {
	out := make([]uint32, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, le.Uint32(b[i:]))
	}
	return out
}

func readCString(data []byte, off int) (string, error) {
	if off < 0 || off >= len(data) {
		return "", fmt.Errorf("%w: name offset %d out of bounds", ErrInvalidData, off)
	}
	end := bytes.IndexByte(data[off:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated name at %d", ErrInvalidData, off)
	}
	return string(data[off : off+end]), nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

func appendZeros(buf []byte, n int) []byte {
	for i := 0; i < n; i++ {
		buf = append(buf, 0)
	}
	return buf
}
