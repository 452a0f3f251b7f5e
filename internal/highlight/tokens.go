package highlight

import "github.com/zjrosen/citemark/internal/citation"

// Token is a styled region of a single line.
// Start and End are byte offsets within the line; End is exclusive.
// Tokens of a line are sorted and non-overlapping, and gaps render as plain text.
type Token struct {
	Start int
	End   int
	Kind  citation.Kind
	Key   string
}

// LineTokens splits document spans into per-line tokens. The result has
// one entry per line of text (lines end at '\n'); spans crossing a line
// break are cut at it. spans must be sorted and disjoint, as Scan returns.
func LineTokens(text string, spans []citation.Span) [][]Token {
	idx := citation.NewLineIndex(text)
	return TokensForLines(idx, spans, 0, idx.Lines()-1)
}

// TokensForLines is LineTokens restricted to lines first..last of an
// indexed document; entry i holds the tokens of line first+i. Spans outside
// those lines are ignored, so the viewer can pass the spans of its visible
// range directly.
func TokensForLines(idx citation.LineIndex, spans []citation.Span, first, last int) [][]Token {
	first = max(first, 0)
	last = min(last, idx.Lines()-1)
	if first > last {
		return nil
	}
	out := make([][]Token, last-first+1)
	size := idx.End(idx.Lines() - 1)

	for _, s := range spans {
		start, end := max(s.Start, 0), min(s.End, size)
		if start >= end {
			continue
		}
		for line := max(idx.Line(start), first); line <= last; line++ {
			lineStart, lineEnd := idx.Start(line), idx.End(line)
			if lineStart >= end {
				break
			}
			from, to := max(start, lineStart), min(end, lineEnd)
			if from < to {
				out[line-first] = append(out[line-first], Token{
					Start: from - lineStart,
					End:   to - lineStart,
					Kind:  s.Kind,
					Key:   s.Key,
				})
			}
		}
	}
	return out
}
