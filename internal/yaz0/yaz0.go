// Package yaz0 implements the Yaz0 LZ77 wrapper used around archives and byml files.
package yaz0

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerSize = 16
	windowSize = 0x1000
	minMatch   = 3
	maxMatch   = 0xFF + 0x12
	hashBits   = 15
	chainLimit = 64
	noPosition = -1
)

var (
	Magic            = []byte("Yaz0")
	ErrInvalidHeader = errors.New("not a Yaz0 stream")
	ErrCorrupt       = errors.New("corrupt Yaz0 stream")
)

// IsCompressed reports whether data starts with the Yaz0 magic
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// DecompressedSize reads the size field of a Yaz0 header
func DecompressedSize(data []byte) (int, error) {
	if len(data) < headerSize || !IsCompressed(data) {
		return 0, ErrInvalidHeader
	}
	return int(binary.BigEndian.Uint32(data[4:8])), nil
}

// Decompress expands a Yaz0 stream
func Decompress(data []byte) ([]byte, error) {
	size, err := DecompressedSize(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, size)
	src := headerSize

	for len(out) < size {
		if src >= len(data) {
			return nil, fmt.Errorf("%w: input ended after %d of %d bytes", ErrCorrupt, len(out), size)
		}
		code := data[src]
		src++

		for bit := 7; bit >= 0 && len(out) < size; bit-- {
			if code&(1<<bit) != 0 {
				if src >= len(data) {
					return nil, fmt.Errorf("%w: missing literal", ErrCorrupt)
				}
				out = append(out, data[src])
				src++
				continue
			}

			if src+2 > len(data) {
				return nil, fmt.Errorf("%w: missing back-reference", ErrCorrupt)
			}
			b1, b2 := data[src], data[src+1]
			src += 2

			dist := (int(b1&0x0F)<<8 | int(b2)) + 1
			length := int(b1>>4) + 2
			if b1>>4 == 0 {
				if src >= len(data) {
					return nil, fmt.Errorf("%w: missing length byte", ErrCorrupt)
				}
				length = int(data[src]) + 0x12
				src++
			}

			start := len(out) - dist
			if start < 0 {
				return nil, fmt.Errorf("%w: back-reference before start of output", ErrCorrupt)
			}
			for i := 0; i < length && len(out) < size; i++ {
				out = append(out, out[start+i])
			}
		}
	}

	return out, nil
}

// Compress wraps data in a Yaz0 stream using greedy hash-chain matching
func Compress(data []byte) []byte {
	out := make([]byte, headerSize, headerSize+len(data)+len(data)/8+1)
	copy(out, Magic)
	binary.BigEndian.PutUint32(out[4:], uint32(len(data)))

	m := newMatcher(len(data))

	pos := 0
	for pos < len(data) {
		codeIdx := len(out)
		out = append(out, 0)
		var code byte

		for bit := 7; bit >= 0 && pos < len(data); bit-- {
			dist, length := m.find(data, pos)
			if length < minMatch {
				code |= 1 << bit
				out = append(out, data[pos])
				m.insert(data, pos)
				pos++
				continue
			}

			d := dist - 1
			if length >= 0x12 {
				out = append(out, byte(d>>8), byte(d), byte(length-0x12))
			} else {
				out = append(out, byte((length-2)<<4|d>>8), byte(d))
			}
			for i := 0; i < length; i++ {
				m.insert(data, pos+i)
			}
			pos += length
		}
		out[codeIdx] = code
	}

	return out
}

type matcher struct {
	head []int
	prev []int
}

func newMatcher(n int) *matcher {
	m := &matcher{head: make([]int, 1<<hashBits), prev: make([]int, n)}
	for i := range m.head {
		m.head[i] = noPosition
	}
	return m
}

func hash3(data []byte, pos int) int {
	v := uint32(data[pos])<<16 | uint32(data[pos+1])<<8 | uint32(data[pos+2])
	return int((v * 2654435761) >> (32 - hashBits))
}

func (m *matcher) insert(data []byte, pos int) {
	if pos+minMatch > len(data) {
		return
	}
	h := hash3(data, pos)
	m.prev[pos] = m.head[h]
	m.head[h] = pos
}

// find returns the longest match for data[pos:] within the window
func (m *matcher) find(data []byte, pos int) (dist, length int) {
	if pos+minMatch > len(data) {
		return 0, 0
	}
	limit := len(data) - pos
	if limit > maxMatch {
		limit = maxMatch
	}

	candidate := m.head[hash3(data, pos)]
	for steps := 0; candidate != noPosition && steps < chainLimit; steps++ {
		if pos-candidate > windowSize {
			break
		}
		n := 0
		for n < limit && data[candidate+n] == data[pos+n] {
			n++
		}
		if n > length {
			dist, length = pos-candidate, n
			if n == limit {
				break
			}
		}
		candidate = m.prev[candidate]
	}
	return dist, length
}
