package viewer

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/highlight"
)

// Layout constants.
const (
	minPanelWidth = 24
	maxPanelWidth = 72
	minTextWidth  = 20
	tabWidth      = 4
)

var (
	mutedColor = lipgloss.AdaptiveColor{Light: "#8C8C8C", Dark: "#6C7086"}

	gutterStyle = lipgloss.NewStyle().Foreground(mutedColor)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"}).
			Background(lipgloss.AdaptiveColor{Light: "#DCE0E8", Dark: "#313244"})
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"})
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

func zoneID(line, start int) string {
	return fmt.Sprintf("cite-%d-%d", line, start)
}

// layout sizes the viewport and panel from the window size.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.help.Width = m.width

	footer := 1 + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Width = m.width - m.panelWidth()
	m.viewport.Height = max(m.height-footer, 1)
	m.viewport.SetYOffset(m.viewport.YOffset)

	if m.showRefs {
		m.renderRefs()
	}
}

// panelWidth is the width of the reference panel including its border,
// zero when hidden.
func (m Model) panelWidth() int {
	if !m.showRefs {
		return 0
	}
	w := min(max(m.width*2/5, minPanelWidth), maxPanelWidth)
	if m.width-w < minTextWidth {
		w = m.width / 2
	}
	return w
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return ""
	}

	body := m.renderText()
	if m.showRefs {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderPanel())
	}
	view := lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatus(), m.help.View(m.keys))
	return zone.Scan(view)
}

func (m Model) gutterWidth() int {
	if !m.cfg.Viewer.LineNumbers {
		return 0
	}
	return runewidth.StringWidth(strconv.Itoa(m.idx.Lines())) + 1
}

func (m Model) renderText() string {
	width := m.viewport.Width
	gutter := m.gutterWidth()
	textWidth := max(width-gutter, 1)
	first, _ := m.visibleLines()

	rows := make([]string, 0, m.viewport.Height)
	for row := range m.viewport.Height {
		lineNo := first + row
		if lineNo >= m.idx.Lines() {
			rows = append(rows, strings.Repeat(" ", width))
			continue
		}

		var tokens []highlight.Token
		if row < len(m.tokens) {
			tokens = m.tokens[row]
		}
		line := m.text[m.idx.Start(lineNo):m.idx.End(lineNo)]
		rendered := m.renderLine(lineNo, line, tokens, textWidth)

		if gutter > 0 {
			rendered = gutterStyle.Render(fmt.Sprintf("%*d ", gutter-1, lineNo+1)) + rendered
		}
		rows = append(rows, pad(rendered, width))
	}
	return strings.Join(rows, "\n")
}

// renderLine highlights one line and cuts it to width. Keys that fit on
// screen are marked as click zones.
func (m Model) renderLine(lineNo int, line string, tokens []highlight.Token, width int) string {
	decorate := func(tok highlight.Token, styled string) string {
		if tok.Kind != citation.KindCitationKey {
			return styled
		}
		if runewidth.StringWidth(expandTabs(line[:tok.End])) > width {
			return styled
		}
		return zone.Mark(zoneID(lineNo, tok.Start), styled)
	}
	out := m.theme.RenderLine(line, tokens, m.selected, decorate)
	out = strings.ReplaceAll(expandTabs(out), "\r", "")
	return ansi.Truncate(out, width, "")
}

func (m Model) renderPanel() string {
	width := m.panelWidth()
	height := m.viewport.Height
	inner := max(width-3, 1)

	var content string
	switch m.refs.status {
	case refsReady:
		content = m.refs.rendered
	case refsFailed:
		content = wordwrap.String(refsErrorText(m.refs.err), inner)
	default:
		content = gutterStyle.Render("Rendering references…")
	}

	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, inner, "")
	}
	return panelStyle.Width(width - 1).Height(height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	name := "stdin"
	if m.path != "" {
		name = filepath.Base(m.path)
	}
	first, last := m.visibleLines()
	last = min(last, m.idx.Lines()-1)
	left := fmt.Sprintf(" %s  %d-%d/%d ", name, first+1, last+1, m.idx.Lines())

	var middle string
	if m.selected != "" {
		middle = m.theme.Selected.Render(m.selected)
		if entry, ok := m.entryFor(m.selected); ok {
			middle += " " + strings.Join(strings.Fields(entry), " ")
		}
	}

	right := ""
	if m.notice != "" {
		right = noticeStyle.Render(m.notice) + " "
	}

	avail := max(m.width-ansi.StringWidth(left)-ansi.StringWidth(right), 0)
	middle = truncate.StringWithTail(middle, uint(avail), "…") //nolint:gosec // avail is non-negative
	gap := max(avail-ansi.StringWidth(middle), 0)
	return statusStyle.Render(left + middle + strings.Repeat(" ", gap) + right)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func pad(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
