package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Format selects the output encoding.
type Format string

const (
	FormatPlain Format = "plain"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPlain, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want plain, table, json or yaml)", s)
	}
}

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	format Format
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer, format Format) *Formatter {
	return &Formatter{
		writer: writer,
		format: format,
	}
}

// FormatSpans writes scanned spans.
func (f *Formatter) FormatSpans(spans []SpanDTO) error {
	switch f.format {
	case FormatJSON:
		return f.json(spans)
	case FormatYAML:
		return f.yaml(spans)
	}

	rows := make([][]string, 0, len(spans))
	for _, s := range spans {
		rows = append(rows, []string{
			strconv.Itoa(s.Start),
			strconv.Itoa(s.End),
			fmt.Sprintf("%d:%d", s.Line, s.Column),
			s.Kind.String(),
			strconv.Quote(s.Text),
		})
	}
	return f.rows([]string{"START", "END", "POS", "KIND", "TEXT"}, rows)
}

// FormatKeys writes key summaries. Plain output is one key per line.
func (f *Formatter) FormatKeys(keys []KeyDTO) error {
	switch f.format {
	case FormatJSON:
		return f.json(keys)
	case FormatYAML:
		return f.yaml(keys)
	case FormatPlain:
		for _, k := range keys {
			if _, err := fmt.Fprintln(f.writer, k.Key); err != nil {
				return err
			}
		}
		return nil
	}

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k.Key, strconv.Itoa(k.Count), strconv.Itoa(k.FirstLine)})
	}
	return f.rows([]string{"KEY", "COUNT", "LINE"}, rows)
}

// FormatEntries writes bibliography entries.
func (f *Formatter) FormatEntries(entries []EntryDTO) error {
	switch f.format {
	case FormatJSON:
		return f.json(entries)
	case FormatYAML:
		return f.yaml(entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		text := e.Markdown
		if !e.Found {
			text = "(not found)"
		}
		rows = append(rows, []string{"@" + e.Key, text})
	}
	return f.rows([]string{"KEY", "ENTRY"}, rows)
}

func (f *Formatter) json(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) yaml(v any) error {
	encoder := yaml.NewEncoder(f.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// rows writes a bordered table, or tab separated lines for plain output.
func (f *Formatter) rows(headers []string, rows [][]string) error {
	if f.format == FormatPlain {
		for _, r := range rows {
			if _, err := fmt.Fprintln(f.writer, strings.Join(r, "\t")); err != nil {
				return err
			}
		}
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}
