package viewer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/highlight"
	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/tracing"
)

// visibleLines returns the first and last line on screen.
func (m Model) visibleLines() (int, int) {
	first := m.viewport.YOffset
	return first, first + max(m.viewport.Height, 1) - 1
}

// rescan runs one scan pass over the visible lines. Without force the
// pass is skipped when the visible range has not moved.
func (m *Model) rescan(force bool) {
	first, last := m.visibleLines()
	r := m.idx.Range(first, last)
	if !force && m.passes > 0 && r == m.visible {
		return
	}

	_, span := tracing.Start(context.Background(), tracing.SpanScanPass,
		attribute.String(tracing.AttrSourceID, m.sourceID),
		attribute.Int(tracing.AttrRangeCount, 1),
		attribute.Int(tracing.AttrScanBytes, r.To-r.From),
	)
	m.spans = m.scanner.Scan(citation.Text(m.text), []citation.Range{r}, m.sourceID)
	span.SetAttributes(attribute.Int(tracing.AttrSpanCount, len(m.spans)))
	tracing.End(span, nil)

	m.visible = r
	m.passes++
	m.tokens = highlight.TokensForLines(m.idx, m.spans, first, last)

	log.Debug(log.CatScan, "Viewer pass", "range", r, "spans", len(m.spans), "pass", m.passes)
}
