package convert

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies a conversion failure
type Kind int

const (
	KindBadExtension Kind = iota
	KindTool
	KindAudio
	KindArchive
	KindIO
	KindOption
	KindEncoding
	KindMissingOutput
)

var kindNames = map[Kind]string{
	KindBadExtension:  "bad_extension",
	KindTool:          "tool",
	KindAudio:         "audio",
	KindArchive:       "archive",
	KindIO:            "io",
	KindOption:        "option_format",
	KindEncoding:      "text_encoding",
	KindMissingOutput: "missing_output",
}

// String returns the kind name used in logs
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified conversion failure. Message is what the user sees.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a classified error with a formatted message
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, keeping it as the cause
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// KindOf returns the kind of a classified error, or false if err is not one
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// classify turns any converter error into an *Error. Filesystem errors are
// I/O failures; anything else unclassified is blamed on the tool.
func classify(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return Wrap(KindIO, err)
	}
	return Wrap(KindTool, err)
}
