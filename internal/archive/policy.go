package archive

import (
	"encoding/binary"
	"log/slog"
	"strings"
)

const (
	// DefaultCompressedExt is used when nothing in the option names an extension
	DefaultCompressedExt = "szs"
	// DefaultUncompressedExt is used for the bare "uncompressed" keyword
	DefaultUncompressedExt = "sarc"
)

// CompressedExts are archive extensions that are always Yaz0 wrapped
var CompressedExts = []string{
	"sbactorpack", "sbmodelsh", "sbeventpack", "ssarc", "pack", "stera", "stats", "szs",
}

// UncompressedExts are archive extensions stored as a bare SARC
var UncompressedExts = []string{
	"bactorpack", "bmodelsh", "beventpack", "sarc", "arc", "bars", "blarc", "bgenv", "genvb",
}

var (
	littleEndianHints = []string{"3ds", "switch"}
	bigEndianHints    = []string{"wiiu", "wii u", "Wii U", "wii U", "big"}
)

// Policy decides how an archive is written. It is resolved once per
// conversion and never changed afterwards.
type Policy struct {
	Extension  string
	ByteOrder  binary.ByteOrder
	Compressed bool
}

// ResolvePolicy derives the output policy from a free-text option.
//
// Matching is plain substring search, so a hint inside an unrelated word still
// counts ("bigger" selects big endian). A vocabulary word found only as part of
// a longer vocabulary word in the option is ignored, which lets "bactorpack"
// win over the "pack" it contains.
func ResolvePolicy(option string) Policy {
	p := Policy{
		Extension:  DefaultCompressedExt,
		ByteOrder:  resolveByteOrder(option),
		Compressed: true,
	}
	if option == "" {
		return p
	}

	hits := vocabularyHits(option)
	switch {
	case firstHit(hits, CompressedExts) != "":
		p.Extension, p.Compressed = firstHit(hits, CompressedExts), true
	case firstHit(hits, UncompressedExts) != "":
		p.Extension, p.Compressed = firstHit(hits, UncompressedExts), false
	case strings.Contains(option, "uncompressed"):
		p.Extension, p.Compressed = DefaultUncompressedExt, false
	case strings.Contains(option, "compressed"), strings.Contains(option, "yaz0"):
		p.Extension, p.Compressed = DefaultCompressedExt, true
	}

	slog.Debug("archive policy resolved",
		"option", option,
		"extension", p.Extension,
		"byte_order", p.ByteOrder.String(),
		"compressed", p.Compressed)

	return p
}

func resolveByteOrder(option string) binary.ByteOrder {
	if containsAny(option, littleEndianHints) {
		return binary.LittleEndian
	}
	if containsAny(option, bigEndianHints) {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// vocabularyHits returns every vocabulary word in option that is not itself
// contained in another word that was also found
func vocabularyHits(option string) map[string]bool {
	var found []string
	for _, vocab := range [][]string{CompressedExts, UncompressedExts} {
		for _, ext := range vocab {
			if strings.Contains(option, ext) {
				found = append(found, ext)
			}
		}
	}

	hits := make(map[string]bool, len(found))
	for _, ext := range found {
		shadowed := false
		for _, other := range found {
			if other != ext && strings.Contains(other, ext) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			hits[ext] = true
		}
	}
	return hits
}

func firstHit(hits map[string]bool, vocab []string) string {
	for _, ext := range vocab {
		if hits[ext] {
			return ext
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
