package citation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcher_AbsoluteOffsets(t *testing.T) {
	text := "see [@a; @b] and @c [p. 4]"
	m := DefaultGrammar.Matcher(text, 100)

	first, ok := m.Next()
	require.True(t, ok)
	require.Equal(t, 104, first.Start)
	require.Equal(t, 112, first.End)
	require.Equal(t, "[@a; @b]", first.Text())
	require.Equal(t, Capture{Text: "@a; @b", Start: 105}, first.Slots[RoleKeyList])
	require.Empty(t, first.Slots[RolePrefix].Text, "empty prefix is not captured")

	second, ok := m.Next()
	require.True(t, ok)
	require.Equal(t, 117, second.Start)
	require.Equal(t, "@c [p. 4]", second.Text())
	require.Equal(t, Capture{Text: "p. 4", Start: 121}, second.Slots[RoleLocator])

	_, ok = m.Next()
	require.False(t, ok)
	_, ok = m.Next()
	require.False(t, ok, "an exhausted matcher stays exhausted")
}

func TestMatcher_FreshValueRestartsFromRangeStart(t *testing.T) {
	text := "@a @b @c"

	// Drain one matcher part way, then start another over the same text.
	m1 := DefaultGrammar.Matcher(text, 0)
	_, _ = m1.Next()
	_, _ = m1.Next()

	m2 := DefaultGrammar.Matcher(text, 0)
	got, ok := m2.Next()
	require.True(t, ok)
	require.Equal(t, "@a", got.Text(), "a new matcher never inherits another's position")
}

func TestMatcher_SkipsUnanchoredCandidates(t *testing.T) {
	text := "a@x b@y @z"
	matches := NewScanner(nil).Matches(text, 0)
	require.Len(t, matches, 1)
	require.Equal(t, "@z", matches[0].Text())
	require.Equal(t, 8, matches[0].Start)
}

func TestMatcher_SlotsCoverMatch(t *testing.T) {
	text := "[see @smith2000; @jones1999, p. 33]"
	matches := NewScanner(nil).Matches(text, 0)
	require.Len(t, matches, 1)

	m := matches[0]
	cursor := m.Start
	for _, c := range m.Slots {
		if c.Text == "" {
			continue
		}
		require.Equal(t, cursor, c.Start, "captures are contiguous")
		cursor += len(c.Text)
	}
	require.Equal(t, m.End, cursor)
}

func TestSplitter_Fragments(t *testing.T) {
	sp := DefaultGrammar.Splitter("@a; @b;@c;  @d")

	var got []Fragment
	for {
		f, ok := sp.Next()
		if !ok {
			break
		}
		got = append(got, f)
	}
	require.Equal(t, []Fragment{
		{Key: "@a", Separator: "; "},
		{Key: "@b", Separator: ";"},
		{Key: "@c", Separator: ";  "},
		{Key: "@d"},
	}, got)
}

func TestSplitter_Empty(t *testing.T) {
	_, ok := DefaultGrammar.Splitter("").Next()
	require.False(t, ok)
}

func TestClassifyMatch_SeparatorsAreContiguous(t *testing.T) {
	text := "[@a;@bb;   @ccc]"
	matches := NewScanner(nil).Matches(text, 7)
	require.Len(t, matches, 1)

	spans := DefaultGrammar.ClassifyMatch(nil, matches[0], "doc")
	require.Len(t, spans, 7)
	for i := 1; i < len(spans); i++ {
		require.Equal(t, spans[i-1].End, spans[i].Start)
	}
	require.Equal(t, 7, spans[0].Start)
	require.Equal(t, 7+len(text), spans[len(spans)-1].End)
}
