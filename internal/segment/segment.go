// Package segment splits extracted document text into overlapping,
// token-bounded windows for retrieval.
//
// Tokens are whitespace-delimited words. The overlap must be strictly less
// than the window size; otherwise the window cannot advance and behavior is
// undefined. Callers configure both through options and are responsible for
// respecting that requirement.
package segment

import (
	"strings"
	"unicode/utf8"
)

// DefaultWindow is the default number of tokens per segment.
const DefaultWindow = 800

// DefaultOverlap is the default number of tokens shared by consecutive segments.
const DefaultOverlap = 200

// DefaultSummaryLength is the default rune budget of Summarize.
const DefaultSummaryLength = 220

// Segment is one window of normalized text.
type Segment struct {
	Text  string
	Index int
}

type options struct {
	window  int
	overlap int
}

// Option configures Split.
type Option func(*options)

// WithWindow sets the window size in tokens. Non-positive values are ignored.
func WithWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.window = n
		}
	}
}

// WithOverlap sets the overlap in tokens. Negative values are ignored.
func WithOverlap(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.overlap = n
		}
	}
}

// Split returns the ordered segments of text. Empty or whitespace-only input
// yields nil; the caller substitutes a placeholder when it needs one.
func Split(text string, opts ...Option) []Segment {
	o := options{window: DefaultWindow, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(&o)
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := o.window - o.overlap
	segments := make([]Segment, 0, len(tokens)/max(step, 1)+1)
	index := 0

	for start := 0; start < len(tokens); start += step {
		end := min(len(tokens), start+o.window)
		slice := strings.TrimSpace(strings.Join(tokens[start:end], " "))
		if slice != "" {
			segments = append(segments, Segment{Text: slice, Index: index})
			index++
		}
		if end == len(tokens) {
			break
		}
	}

	return segments
}

// Normalize collapses whitespace runs to single spaces and trims the result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Summarize returns the whitespace-normalized text, cut to maxLen runes with
// a "..." suffix when longer. maxLen <= 0 selects DefaultSummaryLength.
func Summarize(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSummaryLength
	}
	normalized := Normalize(text)
	if utf8.RuneCountInString(normalized) <= maxLen {
		return normalized
	}
	return string([]rune(normalized)[:maxLen]) + "..."
}
