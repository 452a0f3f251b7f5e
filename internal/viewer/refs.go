package viewer

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/markdown"
	"github.com/zjrosen/citemark/internal/references"
)

type refsStatus int

const (
	refsIdle refsStatus = iota
	refsLoading
	refsReady
	refsFailed
)

// refsState is the reference panel content. gen increases with every
// request; results from older requests are dropped.
type refsState struct {
	status   refsStatus
	gen      int
	bib      *references.Bibliography
	err      error
	rendered string
}

func (s refsState) invalidate() refsState {
	return refsState{gen: s.gen + 1}
}

// refsLoadedMsg carries a resolver result.
type refsLoadedMsg struct {
	gen int
	bib *references.Bibliography
	err error
}

// startRefs marks a new request as in flight.
func (m *Model) startRefs() {
	m.refs = refsState{gen: m.refs.gen + 1, status: refsLoading}
	if m.resolver == nil {
		m.refs.status = refsFailed
		m.refs.err = references.ErrBibliographyNotConfigured
	}
}

// requestRefs starts a request and returns the command that runs it.
func (m *Model) requestRefs() tea.Cmd {
	m.startRefs()
	if m.refs.status != refsLoading {
		return nil
	}
	return m.fetchRefs()
}

// fetchRefs resolves the bibliography for the current text off the
// update loop.
func (m Model) fetchRefs() tea.Cmd {
	gen, resolver := m.refs.gen, m.resolver
	req := references.NewRequest(m.sourceID, m.text)
	return func() tea.Msg {
		bib, err := resolver.Resolve(context.Background(), req)
		return refsLoadedMsg{gen: gen, bib: bib, err: err}
	}
}

func (m Model) applyRefs(msg refsLoadedMsg) Model {
	if msg.gen != m.refs.gen {
		log.Debug(log.CatUI, "Dropped stale references", "gen", msg.gen, "current", m.refs.gen)
		return m
	}
	if msg.err != nil {
		if !errors.Is(msg.err, references.ErrNoCitations) {
			log.ErrorErr(log.CatUI, "Rendering references failed", msg.err, "source", m.sourceID)
		}
		m.refs.status = refsFailed
		m.refs.err = msg.err
		return m
	}
	m.refs.status = refsReady
	m.refs.bib = msg.bib
	m.renderRefs()
	return m
}

// renderRefs renders the bibliography markdown at the panel width.
func (m *Model) renderRefs() {
	if m.refs.status != refsReady || m.refs.bib == nil {
		return
	}
	width := max(m.panelWidth()-3, 10)
	if m.mdRenderer == nil || m.mdRenderer.Width() != width {
		r, err := markdown.New(width, m.cfg.Viewer.MarkdownStyle)
		if err != nil {
			log.ErrorErr(log.CatUI, "Creating markdown renderer failed", err)
			m.refs.rendered = m.refs.bib.Markdown()
			return
		}
		m.mdRenderer = r
	}

	out, err := m.mdRenderer.Render(m.refs.bib.Markdown())
	if err != nil {
		log.ErrorErr(log.CatUI, "Rendering bibliography markdown failed", err)
		out = m.refs.bib.Markdown()
	}
	m.refs.rendered = out
}

// entryFor returns the rendered entry for key once references are loaded.
func (m Model) entryFor(key string) (string, bool) {
	if m.refs.status != refsReady || m.refs.bib == nil {
		return "", false
	}
	e, ok := m.refs.bib.Entry(key)
	if !ok {
		return "", false
	}
	return e.Markdown, true
}

// refsErrorText turns a resolver error into a message for the panel.
func refsErrorText(err error) string {
	switch {
	case errors.Is(err, references.ErrBibliographyNotConfigured):
		return "No bibliography configured. Set pandoc.bibliography in your config file."
	case errors.Is(err, references.ErrPandocNotConfigured):
		return "pandoc is not configured. Set pandoc.path in your config file."
	case errors.Is(err, references.ErrNoCitations):
		return "No citations in this document."
	case errors.Is(err, references.ErrTimeout):
		return "pandoc timed out. Raise pandoc.timeout or check the bibliography."
	default:
		return "Could not render references: " + err.Error()
	}
}
