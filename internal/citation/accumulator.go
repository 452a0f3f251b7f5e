package citation

import (
	"cmp"
	"slices"
)

// Accumulator collects the spans of one pass. Spans added in ascending,
// disjoint order are kept as-is. Once an out-of-order or overlapping span
// arrives (overlapping visible ranges), Spans sorts and drops overlaps.
type Accumulator struct {
	spans    []Span
	disorder bool
}

// Add appends a span. Empty spans are ignored.
func (a *Accumulator) Add(s Span) {
	if s.End <= s.Start {
		return
	}
	if n := len(a.spans); n > 0 && s.Start < a.spans[n-1].End {
		a.disorder = true
	}
	a.spans = append(a.spans, s)
}

// AddAll appends spans in order.
func (a *Accumulator) AddAll(spans []Span) {
	for _, s := range spans {
		a.Add(s)
	}
}

// Len returns the number of spans added so far.
func (a *Accumulator) Len() int {
	return len(a.spans)
}

// Spans returns the ordered, non-overlapping result. The result is never nil.
func (a *Accumulator) Spans() []Span {
	if a.spans == nil {
		return []Span{}
	}
	if !a.disorder {
		return a.spans
	}

	slices.SortStableFunc(a.spans, compareSpans)
	out := a.spans[:0]
	end := -1
	for _, s := range a.spans {
		if s.Start < end {
			// Duplicate or overlap from a second view of the same text.
			continue
		}
		out = append(out, s)
		end = s.End
	}
	a.spans = out
	a.disorder = false
	return a.spans
}

func compareSpans(a, b Span) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.End, b.End); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}
