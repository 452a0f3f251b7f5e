// Package presentation formats scan results for the command line.
package presentation

import (
	"unicode/utf8"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/references"
)

// SpanDTO is a span with its text and a human position.
type SpanDTO struct {
	Start  int           `json:"start" yaml:"start"`
	End    int           `json:"end" yaml:"end"`
	Line   int           `json:"line" yaml:"line"`     // 1-based
	Column int           `json:"column" yaml:"column"` // 1-based, in runes
	Kind   citation.Kind `json:"kind" yaml:"kind"`
	Key    string        `json:"key,omitempty" yaml:"key,omitempty"`
	Text   string        `json:"text" yaml:"text"`
	Source string        `json:"source,omitempty" yaml:"source,omitempty"`
}

// KeyDTO summarizes one cited key.
type KeyDTO struct {
	Key       string `json:"key" yaml:"key"`
	Count     int    `json:"count" yaml:"count"`
	FirstLine int    `json:"first_line" yaml:"first_line"`
}

// EntryDTO is one bibliography entry.
type EntryDTO struct {
	Key      string `json:"key" yaml:"key"`
	Found    bool   `json:"found" yaml:"found"`
	Markdown string `json:"markdown,omitempty" yaml:"markdown,omitempty"`
}

// FromSpans converts spans scanned from text.
func FromSpans(text string, spans []citation.Span) []SpanDTO {
	idx := citation.NewLineIndex(text)
	out := make([]SpanDTO, 0, len(spans))
	for _, s := range spans {
		line := idx.Line(s.Start)
		out = append(out, SpanDTO{
			Start:  s.Start,
			End:    s.End,
			Line:   line + 1,
			Column: utf8.RuneCountInString(text[idx.Start(line):s.Start]) + 1,
			Kind:   s.Kind,
			Key:    s.Key,
			Text:   text[s.Start:s.End],
			Source: s.SourceID,
		})
	}
	return out
}

// FromKeys counts the citation keys in spans, in order of first appearance.
func FromKeys(text string, spans []citation.Span) []KeyDTO {
	idx := citation.NewLineIndex(text)
	pos := make(map[string]int)
	var out []KeyDTO
	for _, s := range spans {
		if s.Kind != citation.KindCitationKey {
			continue
		}
		if i, ok := pos[s.Key]; ok {
			out[i].Count++
			continue
		}
		pos[s.Key] = len(out)
		out = append(out, KeyDTO{Key: s.Key, Count: 1, FirstLine: idx.Line(s.Start) + 1})
	}
	return out
}

// FromBibliography lists an entry per requested key, found or not.
func FromBibliography(bib *references.Bibliography) []EntryDTO {
	out := make([]EntryDTO, 0, len(bib.Keys))
	for _, k := range bib.Keys {
		e, ok := bib.Entry(k)
		out = append(out, EntryDTO{Key: k, Found: ok, Markdown: e.Markdown})
	}
	return out
}
