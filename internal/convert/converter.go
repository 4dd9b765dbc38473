// Package convert dispatches an inbound file to the first format converter
// that claims it and converts it in the direction the converter chose.
package convert

import (
	"context"
	"path/filepath"
	"strings"
)

// Direction is a converter's verdict on a file
type Direction int

const (
	NoMatch Direction = iota
	// ConvertTo encodes the human-editable form into the binary form
	ConvertTo
	// ConvertFrom decodes the binary form into the human-editable form
	ConvertFrom
)

func (d Direction) String() string {
	switch d {
	case ConvertTo:
		return "to"
	case ConvertFrom:
		return "from"
	default:
		return "none"
	}
}

// Converter converts one family of formats in both directions.
//
// Classify must not fail: unreadable files are simply not claimed. The
// directional methods return the path of a newly created file and never
// modify the input. An empty option means no option was given.
type Converter interface {
	Name() string
	Classify(ext, path string) Direction
	ConvertTo(ctx context.Context, path, option string) (string, error)
	ConvertFrom(ctx context.Context, path, option string) (string, error)
}

// Formats lists the extensions a converter handles, for help output
type Formats struct {
	Human  []string
	Binary []string
}

// Describer is implemented by converters that can list their formats
type Describer interface {
	Formats() Formats
}

// Request is one inbound file and the text that came with it
type Request struct {
	Path   string
	Option string
}

// Extension returns the file extension without the dot, or "" when there is none
func Extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// ReplaceExt returns path with its extension swapped for ext
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// Stem returns the file name without directory or extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
