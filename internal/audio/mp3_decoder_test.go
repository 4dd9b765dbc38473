package audio

import (
	"bytes"
	"errors"
	"testing"
)

func TestMp3DecoderRejects(t *testing.T) {
	// a lone frame header with no decodable payload
	frameHeader := append([]byte{0xFF, 0xFB, 0x90, 0x00}, make([]byte, 32)...)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("not an mp3 stream")},
		{"truncated frame", frameHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMp3Decoder().Decode(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalidData) && !errors.Is(err, ErrReadFailure) {
				t.Errorf("expected a decoder error, got %v", err)
			}
		})
	}
}

func TestMp3DecoderMetadata(t *testing.T) {
	d := NewMp3Decoder()
	if d.FormatName() != "MP3" {
		t.Errorf("unexpected format name %s", d.FormatName())
	}
	if got := NewDefaultRegistry().ByExtension("/in/song.mp3"); got == nil || got.FormatName() != "MP3" {
		t.Errorf("expected mp3 extension to select MP3, got %v", got)
	}
}
