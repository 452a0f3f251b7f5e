package citation

import (
	"unicode/utf8"
)

// Scanner runs scan passes. It holds only the immutable grammar and may be
// shared between documents and goroutines.
type Scanner struct {
	grammar *Grammar
}

// NewScanner creates a scanner for the grammar. A nil grammar uses DefaultGrammar.
func NewScanner(g *Grammar) *Scanner {
	if g == nil {
		g = DefaultGrammar
	}
	return &Scanner{grammar: g}
}

// Scan runs one pass over the visible ranges of doc and returns every span
// found, in ascending order. Ranges are clamped to the document; empty ones
// are skipped. Each range is matched independently, so a citation that
// straddles a range boundary is only recognized in the parts each range sees.
func (s *Scanner) Scan(doc Document, ranges []Range, sourceID string) []Span {
	var acc Accumulator
	var buf []Span
	size := doc.Len()

	for _, r := range ranges {
		r = clampRange(r, size)
		if r.Empty() {
			continue
		}
		text := doc.Slice(r.From, r.To)
		text, from := trimPartialRunes(text, r.From)

		m := s.grammar.Matcher(text, from)
		for {
			match, ok := m.Next()
			if !ok {
				break
			}
			buf = s.grammar.ClassifyMatch(buf[:0], match, sourceID)
			acc.AddAll(buf)
		}
	}
	return acc.Spans()
}

// ScanAll runs a pass over the whole document.
func (s *Scanner) ScanAll(doc Document, sourceID string) []Span {
	return s.Scan(doc, []Range{{From: 0, To: doc.Len()}}, sourceID)
}

// Matches returns every match of the grammar in text, which starts at the
// absolute offset. Unlike Scan it exposes the raw captures.
func (s *Scanner) Matches(text string, offset int) []Match {
	var out []Match
	m := s.grammar.Matcher(text, offset)
	for {
		match, ok := m.Next()
		if !ok {
			return out
		}
		out = append(out, match)
	}
}

var defaultScanner = NewScanner(nil)

// Scan runs a pass with the default grammar.
func Scan(doc Document, ranges []Range, sourceID string) []Span {
	return defaultScanner.Scan(doc, ranges, sourceID)
}

// ScanText scans all of text with the default grammar.
func ScanText(text, sourceID string) []Span {
	return defaultScanner.ScanAll(Text(text), sourceID)
}

func clampRange(r Range, size int) Range {
	r.From = max(r.From, 0)
	r.To = min(r.To, size)
	return r
}

// trimPartialRunes drops a torn UTF-8 sequence at either end of a slice taken
// at arbitrary byte offsets, returning the new text and its start offset.
func trimPartialRunes(text string, from int) (string, int) {
	for len(text) > 0 && !utf8.RuneStart(text[0]) {
		text = text[1:]
		from++
	}
	// Look back at most UTFMax-1 bytes for the start of the last rune.
	for i := len(text) - 1; i >= 0 && i >= len(text)-utf8.UTFMax; i-- {
		if utf8.RuneStart(text[i]) {
			if !utf8.FullRuneInString(text[i:]) {
				text = text[:i]
			}
			break
		}
	}
	return text, from
}
