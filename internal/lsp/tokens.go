package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/highlight"
)

// tokenTypes is the semantic token legend, indexed by citation.Kind.
// Standard type names get colours from every client theme.
var tokenTypes = []string{
	citation.KindCitationKey: "variable",
	citation.KindFormatting:  "operator",
	citation.KindExtra:       "string",
}

func legend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes:     tokenTypes,
		TokenModifiers: []string{},
	}
}

// encodeTokens encodes the spans on lines first..last in the relative
// five-integer form. Spans crossing a line break are split.
func encodeTokens(d *document, spans []citation.Span, first, last int) []protocol.UInteger {
	data := []protocol.UInteger{}
	prevLine, prevChar := 0, 0

	for i, line := range highlight.TokensForLines(d.idx, spans, first, last) {
		lineNo := first + i
		text := d.text[d.idx.Start(lineNo):d.idx.End(lineNo)]
		for _, tok := range line {
			char := u16Count(text[:tok.Start])
			length := u16Count(text[tok.Start:tok.End])

			deltaLine := lineNo - prevLine
			deltaChar := char
			if deltaLine == 0 {
				deltaChar = char - prevChar
			}
			data = append(data,
				protocol.UInteger(deltaLine), //nolint:gosec // non-negative
				protocol.UInteger(deltaChar), //nolint:gosec // non-negative
				protocol.UInteger(length),    //nolint:gosec // non-negative
				protocol.UInteger(tok.Kind),  //nolint:gosec // legend index
				0,
			)
			prevLine, prevChar = lineNo, char
		}
	}
	return data
}
