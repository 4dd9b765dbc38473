package looprange

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ReferenceRate is the sample rate timestamps are converted at. Audio is always
// resampled to this rate before encoding.
const ReferenceRate = 48000

// ErrFormat is returned when the loop option matches neither accepted syntax
var ErrFormat = errors.New("invalid loop format: use 'start-end' in samples (e.g. 1000-200000) or timestamps (e.g. 0:01.5-1:02.25)")

// Range is a half-open interval [Start, End) over sample indices
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of samples inside the range
func (r Range) Len() uint64 {
	return r.End - r.Start
}

// String formats the range the way the audio authoring tool expects it
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ExceedsError reports a loop end past the decoded audio
type ExceedsError struct {
	End   uint64
	Total uint64
}

func (e *ExceedsError) Error() string {
	return fmt.Sprintf("loop end %d is past the end of the audio, which has only %d samples", e.End, e.Total)
}

// InvertedError reports a loop whose start comes after its end
type InvertedError struct {
	Start uint64
	End   uint64
}

func (e *InvertedError) Error() string {
	return fmt.Sprintf("loop start %d is after loop end %d", e.Start, e.End)
}

// Resolve turns a free-text loop option into a sample range.
//
// An empty option yields [0, totalSamples). Fields are separated by ',' or '-'
// and a trailing separator is ignored. When the option contains ':' or '.' every
// field is a timestamp ([[hours:]minutes:]seconds[.fraction]) measured at
// ReferenceRate; otherwise every field is a sample index in the audio as it was
// before resampling and is scaled by rate (new sample count / old sample count),
// rounding half up. totalSamples is the post-resampling sample count.
func Resolve(option string, totalSamples uint64, rate float64) (Range, error) {
	if option == "" {
		return Range{Start: 0, End: totalSamples}, nil
	}

	slog.Debug("resolving loop range",
		"option", option,
		"total_samples", totalSamples,
		"conversion_rate", rate)

	fields, err := splitFields(option)
	if err != nil {
		return Range{}, err
	}

	parse := func(field string) (uint64, error) {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a sample index", ErrFormat, field)
		}
		return roundHalfUp(float64(v) * rate), nil
	}
	if strings.ContainsAny(option, ":.") {
		parse = parseTimestamp
	}

	values := make([]uint64, 0, len(fields))
	for _, field := range fields {
		v, err := parse(field)
		if err != nil {
			return Range{}, err
		}
		values = append(values, v)
	}

	var r Range
	switch len(values) {
	case 1:
		r = Range{Start: values[0], End: totalSamples}
	case 2:
		r = Range{Start: values[0], End: values[1]}
	default:
		return Range{}, fmt.Errorf("%w: expected 1 or 2 values, got %d", ErrFormat, len(values))
	}

	if r.End > totalSamples {
		return Range{}, &ExceedsError{End: r.End, Total: totalSamples}
	}
	if r.Start > r.End {
		return Range{}, &InvertedError{Start: r.Start, End: r.End}
	}

	slog.Debug("loop range resolved", "start", r.Start, "end", r.End)
	return r, nil
}

func splitFields(option string) ([]string, error) {
	raw := splitKeepEmpty(strings.TrimSpace(option))
	if n := len(raw); n > 1 && strings.TrimSpace(raw[n-1]) == "" {
		raw = raw[:n-1]
	}

	out := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, fmt.Errorf("%w: empty value in %q", ErrFormat, option)
		}
		out = append(out, f)
	}
	return out, nil
}

func splitKeepEmpty(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == ',' || r == '-' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

// parseTimestamp converts [[hours:]minutes:]seconds[.fraction] into samples at ReferenceRate
func parseTimestamp(field string) (uint64, error) {
	parts := strings.Split(field, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has too many ':' separated parts", ErrFormat, field)
	}

	secPart := parts[len(parts)-1]
	if !isDecimal(secPart) {
		return 0, fmt.Errorf("%w: %q is not a timestamp", ErrFormat, field)
	}
	seconds, err := strconv.ParseFloat(secPart, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a timestamp", ErrFormat, field)
	}

	multiplier := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		v, err := strconv.ParseUint(parts[i], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a timestamp", ErrFormat, field)
		}
		seconds += float64(v) * multiplier
		multiplier *= 60
	}

	return roundHalfUp(seconds * ReferenceRate), nil
}

// isDecimal accepts digits with at most one '.', and at least one digit
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func roundHalfUp(v float64) uint64 {
	return uint64(math.Floor(v + 0.5))
}
