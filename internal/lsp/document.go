package lsp

import (
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/zjrosen/citemark/internal/citation"
)

// document is an open text document. LSP positions count UTF-16 code
// units; the scanner works in bytes, so every position crossing the
// boundary goes through offsetAt or positionAt.
type document struct {
	uri  protocol.DocumentUri
	text string
	idx  citation.LineIndex
}

func newDocument(uri protocol.DocumentUri, text string) *document {
	return &document{uri: uri, text: text, idx: citation.NewLineIndex(text)}
}

// Len implements citation.Document.
func (d *document) Len() int { return len(d.text) }

// Slice implements citation.Document.
func (d *document) Slice(from, to int) string { return d.text[from:to] }

// offsetAt converts a position to a byte offset. Characters past the end
// of the line clamp to it; a position inside a surrogate pair resolves to
// the start of that rune.
func (d *document) offsetAt(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= d.idx.Lines() {
		return len(d.text)
	}
	offset, end := d.idx.Start(line), d.idx.End(line)
	units := int(pos.Character)
	for offset < end && units > 0 {
		r, size := utf8.DecodeRuneInString(d.text[offset:end])
		n := u16Len(r)
		if n > units {
			break
		}
		units -= n
		offset += size
	}
	return offset
}

// positionAt converts a byte offset to a position.
func (d *document) positionAt(offset int) protocol.Position {
	offset = min(max(offset, 0), len(d.text))
	line := d.idx.Line(offset)
	char := u16Count(d.text[d.idx.Start(line):offset])
	return protocol.Position{
		Line:      protocol.UInteger(line), //nolint:gosec // non-negative
		Character: protocol.UInteger(char), //nolint:gosec // non-negative
	}
}

// lineRange widens an LSP range to whole lines.
func (d *document) lineRange(r protocol.Range) (citation.Range, int, int) {
	first := int(r.Start.Line)
	last := int(r.End.Line)
	if r.End.Character == 0 && last > first {
		last--
	}
	return d.idx.Range(first, last), first, last
}

// apply returns the document with one content change applied. Documents
// are immutable once published to the server's map; d is left untouched.
func (d *document) apply(change any) (*document, bool) {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return newDocument(d.uri, c.Text), true
	case protocol.TextDocumentContentChangeEvent:
		from, to := d.offsetAt(c.Range.Start), d.offsetAt(c.Range.End)
		if to < from {
			from, to = to, from
		}
		return newDocument(d.uri, d.text[:from]+c.Text+d.text[to:]), true
	default:
		return nil, false
	}
}

func u16Len(r rune) int {
	if r < 0x10000 {
		return 1
	}
	return 2
}

func u16Count(s string) int {
	n := 0
	for _, r := range s {
		n += u16Len(r)
	}
	return n
}
