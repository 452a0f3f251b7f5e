// Package citation recognizes pandoc citation syntax in document text and
// classifies it into highlighting spans.
//
// A scan pass runs the citation grammar over the visible ranges of a document
// and returns every span in ascending order. Passes share nothing but the
// compiled grammar, so the same Scanner can serve any number of documents.
package citation

import (
	"fmt"
)

// Kind classifies a span.
type Kind int

const (
	// KindCitationKey marks a citation key such as "@smith2000".
	KindCitationKey Kind = iota
	// KindFormatting marks brackets, separators and locator padding.
	KindFormatting
	// KindExtra marks free text: prefixes, suffixes and locators.
	KindExtra
)

func (k Kind) String() string {
	switch k {
	case KindCitationKey:
		return "citation-key"
	case KindFormatting:
		return "formatting"
	case KindExtra:
		return "extra"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindCitationKey || k > KindExtra {
		return nil, fmt.Errorf("unknown span kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "citation-key":
		*k = KindCitationKey
	case "formatting":
		*k = KindFormatting
	case "extra":
		*k = KindExtra
	default:
		return fmt.Errorf("unknown span kind %q", text)
	}
	return nil
}

// Span is a classified substring of a document.
type Span struct {
	// Start is the absolute byte offset of the first byte of the span.
	Start int `json:"start" yaml:"start"`

	// End is the absolute byte offset one past the last byte (exclusive, like Go slices).
	End int `json:"end" yaml:"end"`

	Kind Kind `json:"kind" yaml:"kind"`

	// Key is the literal citation key including the leading '@'.
	// Only set for KindCitationKey.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// SourceID identifies the document the span was scanned from.
	SourceID string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether the byte offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Range is a half-open [From, To) byte interval of a document.
type Range struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d", r.From, r.To)
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool {
	return r.To <= r.From
}

// Document gives the scanner access to document text.
type Document interface {
	// Len returns the document length in bytes.
	Len() int
	// Slice returns the text in [from, to). Callers guarantee 0 <= from <= to <= Len().
	Slice(from, to int) string
}

// Text is a Document backed by an immutable string.
type Text string

// Len implements Document.
func (t Text) Len() int { return len(t) }

// Slice implements Document.
func (t Text) Slice(from, to int) string { return string(t[from:to]) }
