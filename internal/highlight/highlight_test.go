package highlight

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/config"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	os.Exit(m.Run())
}

func TestLineTokens_SplitsByLine(t *testing.T) {
	text := "first @a\n[see @b; @c]\nnone"
	tokens := LineTokens(text, citation.ScanText(text, "doc"))
	require.Len(t, tokens, 3)

	require.Equal(t, []Token{{Start: 6, End: 8, Kind: citation.KindCitationKey, Key: "@a"}}, tokens[0])
	require.Empty(t, tokens[2])

	line := "[see @b; @c]"
	var rebuilt strings.Builder
	last := 0
	for _, tok := range tokens[1] {
		require.GreaterOrEqual(t, tok.Start, last)
		rebuilt.WriteString(line[tok.Start:tok.End])
		last = tok.End
	}
	require.Equal(t, line, rebuilt.String(), "a bracketed citation is fully covered")
}

func TestLineTokens_SpanCrossingNewlineIsCut(t *testing.T) {
	text := "ab\ncd"
	spans := []citation.Span{{Start: 1, End: 4, Kind: citation.KindExtra}}
	tokens := LineTokens(text, spans)
	require.Equal(t, []Token{{Start: 1, End: 2, Kind: citation.KindExtra}}, tokens[0])
	require.Equal(t, []Token{{Start: 0, End: 1, Kind: citation.KindExtra}}, tokens[1])
}

func TestTokensForLines_Window(t *testing.T) {
	text := "@a\n@b\n@c\n@d"
	idx := citation.NewLineIndex(text)
	visible := idx.Range(1, 2)
	spans := citation.Scan(citation.Text(text), []citation.Range{visible}, "doc")

	tokens := TokensForLines(idx, spans, 1, 2)
	require.Len(t, tokens, 2)
	require.Equal(t, "@b", tokens[0][0].Key)
	require.Equal(t, "@c", tokens[1][0].Key)

	require.Nil(t, TokensForLines(idx, spans, 5, 9))
}

func TestRender_PreservesTextAndStylesSpans(t *testing.T) {
	text := "Intro [see @smith2000, p. 33].\nplain line\n@doe99 says"
	theme := DefaultTheme()
	out := theme.Render(text, citation.ScanText(text, "doc"))

	require.Equal(t, text, ansi.Strip(out))
	require.NotEqual(t, text, out)
	require.Contains(t, out, theme.CitationKey.Render("@smith2000"))
	require.Contains(t, out, theme.Extra.Render(", p. 33"))
	require.Contains(t, out, "\nplain line\n", "lines without citations are untouched")
}

func TestRender_NoSpans(t *testing.T) {
	require.Equal(t, "nothing here", DefaultTheme().Render("nothing here", nil))
}

func TestRenderLine_SelectedAndDecorate(t *testing.T) {
	theme := DefaultTheme()
	line := "@a and @b"
	tokens := LineTokens(line, citation.ScanText(line, "doc"))[0]

	out := theme.RenderLine(line, tokens, "@b", func(tok Token, s string) string {
		return "<" + tok.Key + ">" + s
	})
	require.Contains(t, out, "<@a>"+theme.CitationKey.Render("@a"))
	require.Contains(t, out, "<@b>"+theme.Selected.Render("@b"))
}

func TestNewTheme_FallsBackToDefaults(t *testing.T) {
	custom := NewTheme(config.ThemeConfig{CitationKey: "#FF0000"})
	def := DefaultTheme()

	require.Equal(t, lipgloss.Color("#FF0000"), custom.CitationKey.GetForeground())
	require.Equal(t, def.Formatting.GetForeground(), custom.Formatting.GetForeground())
	require.Equal(t, def.Extra.GetForeground(), custom.Extra.GetForeground())
}

func TestStyle_UnknownKindIsPlain(t *testing.T) {
	require.Equal(t, "x", DefaultTheme().Style(citation.Kind(99)).Render("x"))
}
