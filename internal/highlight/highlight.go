// Package highlight renders scanned citation spans as styled terminal text.
package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/config"
)

// Theme holds the style applied to each span kind.
type Theme struct {
	CitationKey lipgloss.Style
	Formatting  lipgloss.Style
	Extra       lipgloss.Style
	Selected    lipgloss.Style
}

// NewTheme builds a theme from configured colours. Empty colours fall back
// to the defaults.
func NewTheme(cfg config.ThemeConfig) Theme {
	defaults := config.Defaults().Theme
	pick := func(v, def string) lipgloss.Color {
		if v == "" {
			return lipgloss.Color(def)
		}
		return lipgloss.Color(v)
	}

	key := pick(cfg.CitationKey, defaults.CitationKey)
	return Theme{
		CitationKey: lipgloss.NewStyle().Foreground(key).Bold(true),
		Formatting:  lipgloss.NewStyle().Foreground(pick(cfg.Formatting, defaults.Formatting)),
		Extra:       lipgloss.NewStyle().Foreground(pick(cfg.Extra, defaults.Extra)).Italic(true),
		Selected:    lipgloss.NewStyle().Foreground(key).Bold(true).Underline(true),
	}
}

// DefaultTheme returns the theme for the default configuration.
func DefaultTheme() Theme {
	return NewTheme(config.Defaults().Theme)
}

// Style returns the style for kind.
func (t Theme) Style(kind citation.Kind) lipgloss.Style {
	switch kind {
	case citation.KindCitationKey:
		return t.CitationKey
	case citation.KindFormatting:
		return t.Formatting
	case citation.KindExtra:
		return t.Extra
	default:
		return lipgloss.NewStyle()
	}
}

// Render returns text with every span styled. Text outside spans is left
// untouched; newlines are never inside a styled run.
func (t Theme) Render(text string, spans []citation.Span) string {
	lines := strings.Split(text, "\n")
	tokens := LineTokens(text, spans)

	var b strings.Builder
	b.Grow(len(text) * 2)
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.RenderLine(line, tokens[i], "", nil))
	}
	return b.String()
}

// RenderLine styles one line. Tokens must be sorted and non-overlapping, as
// produced by LineTokens. A citation key equal to selected gets the
// Selected style. decorate, when non-nil, wraps each styled token; the
// viewer uses it to mark click zones.
func (t Theme) RenderLine(line string, tokens []Token, selected string, decorate func(Token, string) string) string {
	if len(tokens) == 0 {
		return line
	}

	var b strings.Builder
	last := 0
	for _, tok := range tokens {
		if tok.Start > last {
			b.WriteString(line[last:tok.Start])
		}
		style := t.Style(tok.Kind)
		if tok.Kind == citation.KindCitationKey && selected != "" && tok.Key == selected {
			style = t.Selected
		}
		styled := style.Render(line[tok.Start:tok.End])
		if decorate != nil {
			styled = decorate(tok, styled)
		}
		b.WriteString(styled)
		last = tok.End
	}
	if last < len(line) {
		b.WriteString(line[last:])
	}
	return b.String()
}
