// Package viewer is the terminal document viewer. It keeps the document
// in a scrollable viewport and rescans only the lines on screen whenever
// the visible range changes.
package viewer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/config"
	"github.com/zjrosen/citemark/internal/highlight"
	"github.com/zjrosen/citemark/internal/keys"
	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/markdown"
	"github.com/zjrosen/citemark/internal/pubsub"
	"github.com/zjrosen/citemark/internal/references"
	"github.com/zjrosen/citemark/internal/tracing"
	"github.com/zjrosen/citemark/internal/watcher"
)

// Options configures a viewer.
type Options struct {
	// Path is the file shown. Empty for documents read from stdin, which
	// cannot be reloaded or watched.
	Path string
	// Content is the initial text. When empty and Path is set, the file
	// is read.
	Content string
	// SourceID tags scanned spans. Defaults to Path.
	SourceID string
	Config   config.Config
	// Resolver renders the reference panel. Nil leaves the panel with a
	// hint to configure a bibliography.
	Resolver references.Resolver
}

// Model holds the viewer state.
type Model struct {
	path     string
	sourceID string
	text     string
	idx      citation.LineIndex

	cfg      config.Config
	theme    highlight.Theme
	scanner  *citation.Scanner
	resolver references.Resolver
	watcher  *watcher.Watcher
	changes  *pubsub.Listener[watcher.Change]
	stop     context.CancelFunc

	viewport viewport.Model
	keys     keys.KeyMap
	help     help.Model
	width    int
	height   int
	ready    bool

	// Result of the last scan pass.
	visible citation.Range
	spans   []citation.Span
	tokens  [][]highlight.Token
	passes  int

	selected string

	showRefs   bool
	refs       refsState
	mdRenderer *markdown.Renderer

	notice   string
	noticeID int
}

// New creates a viewer. When watching is enabled the watcher is created
// here so a bad path fails before the program starts.
func New(opts Options) (Model, error) {
	content := opts.Content
	if content == "" && opts.Path != "" {
		data, err := os.ReadFile(opts.Path) //nolint:gosec // G304: user supplied document
		if err != nil {
			return Model{}, fmt.Errorf("reading %s: %w", opts.Path, err)
		}
		content = string(data)
	}

	sourceID := opts.SourceID
	if sourceID == "" {
		sourceID = opts.Path
	}

	if zone.DefaultManager == nil {
		zone.NewGlobal()
	}

	m := Model{
		path:     opts.Path,
		sourceID: sourceID,
		cfg:      opts.Config,
		theme:    highlight.NewTheme(opts.Config.Theme),
		scanner:  citation.NewScanner(citation.NewGrammar()),
		resolver: opts.Resolver,
		viewport: viewport.New(0, 0),
		keys:     keys.DefaultKeyMap(),
		help:     help.New(),
		showRefs: opts.Config.Viewer.ShowReferences,
	}
	m.viewport.MouseWheelEnabled = true
	m.setText(content)
	if m.showRefs {
		m.startRefs()
	}

	if opts.Config.Viewer.Watch && opts.Path != "" {
		if err := m.watch(); err != nil {
			return Model{}, err
		}
	}
	return m, nil
}

// watch follows the document and, when the reference panel can use it,
// the bibliography file.
func (m *Model) watch() error {
	paths := []string{m.path}
	if bib := m.cfg.Pandoc.Bibliography; bib != "" && m.resolver != nil {
		paths = append(paths, bib)
	}

	cfg := watcher.DefaultConfig(paths...)
	if m.cfg.Viewer.Debounce > 0 {
		cfg.DebounceDur = m.cfg.Viewer.Debounce
	}
	w, err := watcher.New(cfg)
	if err != nil {
		return fmt.Errorf("watching %s: %w", m.path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.changes = pubsub.NewListener[watcher.Change](ctx, w)
	if err := w.Start(); err != nil {
		cancel()
		_ = w.Stop()
		return fmt.Errorf("watching %s: %w", m.path, err)
	}
	m.watcher = w
	m.stop = cancel
	return nil
}

// Close stops the file watcher.
func (m Model) Close() error {
	if m.stop != nil {
		m.stop()
	}
	if m.watcher != nil {
		return m.watcher.Stop()
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.changes != nil {
		cmds = append(cmds, m.changes.Listen())
	}
	if m.refs.status == refsLoading {
		cmds = append(cmds, m.fetchRefs())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.rescan(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case pubsub.Event[watcher.Change]:
		cmd := m.handleFileEvent(msg)
		return m, tea.Batch(cmd, m.changes.Listen())

	case refsLoadedMsg:
		m = m.applyRefs(msg)
		return m, nil

	case dismissNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.NextKey):
		m.cycleSelection(1)
	case key.Matches(msg, m.keys.PrevKey):
		m.cycleSelection(-1)
	case key.Matches(msg, m.keys.ClearKey):
		m.selected = ""
	case key.Matches(msg, m.keys.References):
		m.showRefs = !m.showRefs
		m.layout()
		m.rescan(false)
		if m.showRefs && m.refs.status == refsIdle {
			cmd := m.requestRefs()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Reload):
		cmd := m.reload()
		return m, cmd
	}
	m.rescan(false)
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
		if k, ok := m.keyAt(msg); ok {
			m.selected = k
			log.Debug(log.CatUI, "Selected citation", "key", k)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.rescan(false)
	return m, cmd
}

// keyAt returns the citation key whose zone contains the mouse event.
func (m Model) keyAt(msg tea.MouseMsg) (string, bool) {
	first := m.viewport.YOffset
	for i, line := range m.tokens {
		for _, tok := range line {
			if tok.Kind != citation.KindCitationKey {
				continue
			}
			if z := zone.Get(zoneID(first+i, tok.Start)); z != nil && z.InBounds(msg) {
				return tok.Key, true
			}
		}
	}
	return "", false
}

// cycleSelection moves the selection through the keys cited on screen.
func (m *Model) cycleSelection(delta int) {
	visible := citation.Keys(m.spans)
	if len(visible) == 0 {
		m.selected = ""
		return
	}
	current := -1
	for i, k := range visible {
		if k == m.selected {
			current = i
			break
		}
	}
	switch {
	case current < 0 && delta > 0:
		current = 0
	case current < 0:
		current = len(visible) - 1
	default:
		current = (current + delta + len(visible)) % len(visible)
	}
	m.selected = visible[current]
}

// setText replaces the document and forces a new pass.
func (m *Model) setText(text string) {
	m.text = text
	m.idx = citation.NewLineIndex(text)
	m.viewport.SetContent(text)
	m.rescan(true)
}

// reload rereads the file from disk.
func (m *Model) reload() tea.Cmd {
	if m.path == "" {
		return nil
	}
	_, span := tracing.Start(context.Background(), tracing.SpanViewerReload,
		attribute.String(tracing.AttrSourceID, m.sourceID))
	data, err := os.ReadFile(m.path)
	tracing.End(span, err)
	if err != nil {
		log.ErrorErr(log.CatUI, "Reload failed", err, "path", m.path)
		return m.showNotice("reload failed: " + err.Error())
	}
	if string(data) == m.text {
		return nil
	}

	m.setText(string(data))
	log.Info(log.CatUI, "Reloaded document", "path", m.path, "bytes", len(data))

	m.refs = m.refs.invalidate()
	cmds := []tea.Cmd{m.showNotice("reloaded")}
	if m.showRefs {
		cmds = append(cmds, m.requestRefs())
	}
	return tea.Batch(cmds...)
}

// Text returns the current document text.
func (m Model) Text() string { return m.text }

// VisibleRange returns the byte range scanned by the last pass.
func (m Model) VisibleRange() citation.Range { return m.visible }

// Spans returns the spans found by the last pass.
func (m Model) Spans() []citation.Span { return m.spans }

// Passes returns how many scan passes have run.
func (m Model) Passes() int { return m.passes }

// Selected returns the selected citation key, if any.
func (m Model) Selected() string { return m.selected }

// ShowingReferences reports whether the reference panel is open.
func (m Model) ShowingReferences() bool { return m.showRefs }

// handleFileEvent reloads the document or the references, whichever the
// event touches.
func (m *Model) handleFileEvent(event pubsub.Event[watcher.Change]) tea.Cmd {
	switch {
	case event.Type == pubsub.RemovedEvent && event.Payload.Has(m.path):
		log.Warn(log.CatUI, "Document removed", "path", m.path)
		return m.showNotice("file removed; showing last version")
	case event.Payload.Has(m.path):
		return m.reload()
	case m.showRefs:
		m.refs = m.refs.invalidate()
		cmd := m.requestRefs()
		return tea.Batch(cmd, m.showNotice("bibliography changed"))
	default:
		m.refs = m.refs.invalidate()
		return nil
	}
}

type dismissNoticeMsg struct{ id int }

const noticeDuration = 3 * time.Second

// showNotice displays msg in the status bar for a few seconds.
func (m *Model) showNotice(msg string) tea.Cmd {
	m.noticeID++
	m.notice = msg
	id := m.noticeID
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return dismissNoticeMsg{id: id}
	})
}
