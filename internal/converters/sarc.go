package converters

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/jam1garner/discord-forge/internal/archive"
	"github.com/jam1garner/discord-forge/internal/convert"
	"github.com/jam1garner/discord-forge/internal/yaz0"
)

var sarcSignatures = [][]byte{[]byte("SARC"), yaz0.Magic}

// Sarc repacks zip uploads into SARC archives and unpacks archives to zip.
// Archives are recognised by content whatever their extension.
type Sarc struct {
	Fs afero.Fs
}

// NewSarc creates the archive converter
func NewSarc(d Deps) *Sarc {
	return &Sarc{Fs: d.Fs}
}

func (s *Sarc) Name() string { return "sarc" }

func (s *Sarc) Formats() convert.Formats {
	binary := append([]string{}, archive.CompressedExts...)
	return convert.Formats{Human: []string{"zip"}, Binary: append(binary, archive.UncompressedExts...)}
}

func (s *Sarc) Classify(ext, path string) convert.Direction {
	if ext == "zip" {
		return convert.ConvertTo
	}
	if convert.HasMagic(s.Fs, path, sarcSignatures...) {
		return convert.ConvertFrom
	}
	return convert.NoMatch
}

// ConvertTo packs every file of the zip into an archive shaped by option
func (s *Sarc) ConvertTo(_ context.Context, path, option string) (string, error) {
	data, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		return "", convert.Wrap(convert.KindIO, fmt.Errorf("read %s: %w", path, err))
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Error("failed to open zip", "path", path, "error", err)
		return "", convert.Wrap(convert.KindArchive, fmt.Errorf("open zip: %w", err))
	}

	policy := archive.ResolvePolicy(option)
	sarc := &archive.Sarc{ByteOrder: policy.ByteOrder}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		content, err := readZipEntry(f)
		if err != nil {
			slog.Error("failed to read zip entry", "path", path, "entry", f.Name, "error", err)
			return "", convert.Wrap(convert.KindArchive, err)
		}
		sarc.Entries = append(sarc.Entries, archive.Entry{Name: f.Name, Data: content})
	}

	packed := sarc.Bytes()
	if policy.Compressed {
		packed = yaz0.Compress(packed)
	}

	out := convert.ReplaceExt(path, policy.Extension)
	if err := afero.WriteFile(s.Fs, out, packed, 0o644); err != nil {
		return "", convert.Wrap(convert.KindIO, fmt.Errorf("write %s: %w", out, err))
	}

	slog.Info("archive packed",
		"output", out,
		"entries", len(sarc.Entries),
		"byte_order", policy.ByteOrder.String(),
		"compressed", policy.Compressed)
	return out, nil
}

// ConvertFrom unpacks an archive into a deflated zip beside it
func (s *Sarc) ConvertFrom(_ context.Context, path, _ string) (string, error) {
	data, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		return "", convert.Wrap(convert.KindIO, fmt.Errorf("read %s: %w", path, err))
	}

	sarc, err := archive.ReadSarc(data)
	if err != nil {
		slog.Error("failed to read archive", "path", path, "error", err)
		return "", convert.Wrap(convert.KindArchive, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, entry := range sarc.Entries {
		name := entry.Name
		if name == "" {
			name = archive.FallbackName(i)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return "", convert.Wrap(convert.KindArchive, fmt.Errorf("add %s to zip: %w", name, err))
		}
		if _, err := w.Write(entry.Data); err != nil {
			return "", convert.Wrap(convert.KindArchive, fmt.Errorf("write %s to zip: %w", name, err))
		}
	}
	if err := zw.Close(); err != nil {
		return "", convert.Wrap(convert.KindArchive, fmt.Errorf("finish zip: %w", err))
	}

	out := convert.ReplaceExt(path, "zip")
	if err := afero.WriteFile(s.Fs, out, buf.Bytes(), 0o644); err != nil {
		return "", convert.Wrap(convert.KindIO, fmt.Errorf("write %s: %w", out, err))
	}

	slog.Info("archive unpacked", "output", out, "entries", len(sarc.Entries))
	return out, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return content, nil
}
