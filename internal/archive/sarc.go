// Package archive reads and writes SARC archives and decides how a zip
// upload is repacked into one.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jam1garner/discord-forge/internal/yaz0"
)

var ErrInvalidSarc = errors.New("invalid SARC archive")

const (
	sarcHeaderSize = 0x14
	sfatHeaderSize = 0x0C
	sfatNodeSize   = 0x10
	sfntHeaderSize = 0x08
	hashKey        = 0x65
	dataAlign      = 0x80
	hasNameFlag    = 0x01000000
)

// Entry is a file stored in an archive. Name is empty for unnamed nodes.
type Entry struct {
	Name string
	Data []byte
}

// Sarc is an in-memory SARC archive
type Sarc struct {
	ByteOrder binary.ByteOrder
	Entries   []Entry
}

// FallbackName is the positional name given to entries without one
func FallbackName(index int) string {
	return fmt.Sprintf("%d.bin", index)
}

// NameHash is the SFAT hash of a file name
func NameHash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*hashKey + uint32(int32(int8(name[i])))
	}
	return h
}

// IsSarc reports whether data looks like a SARC archive, optionally Yaz0 wrapped
func IsSarc(data []byte) bool {
	return len(data) >= 4 && (string(data[:4]) == "SARC" || yaz0.IsCompressed(data))
}

// ReadSarc parses an archive, expanding a Yaz0 wrapper first
func ReadSarc(data []byte) (*Sarc, error) {
	if yaz0.IsCompressed(data) {
		var err error
		data, err = yaz0.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompress archive: %w", err)
		}
	}

	if len(data) < sarcHeaderSize || string(data[:4]) != "SARC" {
		return nil, fmt.Errorf("%w: missing SARC magic", ErrInvalidSarc)
	}

	var order binary.ByteOrder
	switch {
	case data[6] == 0xFE && data[7] == 0xFF:
		order = binary.BigEndian
	case data[6] == 0xFF && data[7] == 0xFE:
		order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("%w: bad byte order mark %#x%02x", ErrInvalidSarc, data[6], data[7])
	}

	headerLen := int(order.Uint16(data[4:]))
	dataStart := int(order.Uint32(data[0x0C:]))
	if dataStart > len(data) {
		return nil, fmt.Errorf("%w: data offset past end of file", ErrInvalidSarc)
	}

	sfat := headerLen
	if sfat+sfatHeaderSize > len(data) || string(data[sfat:sfat+4]) != "SFAT" {
		return nil, fmt.Errorf("%w: missing SFAT section", ErrInvalidSarc)
	}
	nodeCount := int(order.Uint16(data[sfat+6:]))
	nodes := sfat + sfatHeaderSize

	sfnt := nodes + nodeCount*sfatNodeSize
	if sfnt+sfntHeaderSize > len(data) || string(data[sfnt:sfnt+4]) != "SFNT" {
		return nil, fmt.Errorf("%w: missing SFNT section", ErrInvalidSarc)
	}
	names := sfnt + sfntHeaderSize

	archive := &Sarc{ByteOrder: order, Entries: make([]Entry, 0, nodeCount)}
	for i := 0; i < nodeCount; i++ {
		node := data[nodes+i*sfatNodeSize:]
		attrs := order.Uint32(node[4:])
		start := dataStart + int(order.Uint32(node[8:]))
		end := dataStart + int(order.Uint32(node[12:]))
		if start > end || end > len(data) {
			return nil, fmt.Errorf("%w: node %d data out of bounds", ErrInvalidSarc, i)
		}

		var name string
		if attrs&hasNameFlag != 0 {
			off := names + int(attrs&0xFFFF)*4
			n, err := cString(data, off)
			if err != nil {
				return nil, err
			}
			name = n
		}

		payload := make([]byte, end-start)
		copy(payload, data[start:end])
		archive.Entries = append(archive.Entries, Entry{Name: name, Data: payload})
	}

	slog.Debug("SARC parsed",
		"entries", len(archive.Entries),
		"byte_order", order.String())

	return archive, nil
}

// Bytes serializes the archive. Nodes are ordered by name hash as the
// engine binary-searches them; unnamed entries get their positional name.
func (s *Sarc) Bytes() []byte {
	order := s.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}

	type node struct {
		name string
		hash uint32
		data []byte
	}
	list := make([]node, len(s.Entries))
	for i, e := range s.Entries {
		name := e.Name
		if name == "" {
			name = FallbackName(i)
		}
		list[i] = node{name: name, hash: NameHash(name), data: e.Data}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].hash < list[j].hash })

	nameOffsets := make([]int, len(list))
	namesLen := 0
	for i, n := range list {
		nameOffsets[i] = namesLen
		namesLen += alignUp(len(n.name)+1, 4)
	}

	dataStart := alignUp(sarcHeaderSize+sfatHeaderSize+len(list)*sfatNodeSize+sfntHeaderSize+namesLen, dataAlign)
	dataOffsets := make([]int, len(list))
	dataLen := 0
	for i, n := range list {
		dataLen = alignUp(dataLen, dataAlign)
		dataOffsets[i] = dataLen
		dataLen += len(n.data)
	}
	total := dataStart + dataLen

	buf := make([]byte, total)

	copy(buf, "SARC")
	order.PutUint16(buf[4:], sarcHeaderSize)
	order.PutUint16(buf[6:], 0xFEFF)
	order.PutUint32(buf[8:], uint32(total))
	order.PutUint32(buf[0x0C:], uint32(dataStart))
	order.PutUint16(buf[0x10:], 0x0100)

	pos := sarcHeaderSize
	copy(buf[pos:], "SFAT")
	order.PutUint16(buf[pos+4:], sfatHeaderSize)
	order.PutUint16(buf[pos+6:], uint16(len(list)))
	order.PutUint32(buf[pos+8:], hashKey)
	pos += sfatHeaderSize

	for i, n := range list {
		order.PutUint32(buf[pos:], n.hash)
		order.PutUint32(buf[pos+4:], hasNameFlag|uint32(nameOffsets[i]/4))
		order.PutUint32(buf[pos+8:], uint32(dataOffsets[i]))
		order.PutUint32(buf[pos+12:], uint32(dataOffsets[i]+len(n.data)))
		pos += sfatNodeSize
	}

	copy(buf[pos:], "SFNT")
	order.PutUint16(buf[pos+4:], sfntHeaderSize)
	pos += sfntHeaderSize

	for i, n := range list {
		copy(buf[pos+nameOffsets[i]:], n.name)
	}

	for i, n := range list {
		copy(buf[dataStart+dataOffsets[i]:], n.data)
	}

	return buf
}

func cString(data []byte, off int) (string, error) {
	if off < 0 || off >= len(data) {
		return "", fmt.Errorf("%w: name offset out of bounds", ErrInvalidSarc)
	}
	for i := off; i < len(data); i++ {
		if data[i] == 0 {
			return string(data[off:i]), nil
		}
	}
	return "", fmt.Errorf("%w: unterminated name", ErrInvalidSarc)
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
