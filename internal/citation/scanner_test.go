package citation

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "Intro text [see @smith2000; @jones1999, p. 33].\n" +
	"Second line cites @doe99 [ch. 2] and more.\n" +
	"Third line has no citations at all.\n" +
	"Last line: @roe2001.\n"

func TestScan_WholeDocumentMatchesScanText(t *testing.T) {
	doc := Text(sampleDoc)
	spans := Scan(doc, []Range{{From: 0, To: doc.Len()}}, "doc")
	require.Equal(t, ScanText(sampleDoc, "doc"), spans)
	require.Equal(t, []string{"@smith2000", "@jones1999", "@doe99", "@roe2001."}, Keys(spans))
}

func TestScan_OnlyVisibleRangesAreScanned(t *testing.T) {
	doc := Text(sampleDoc)
	secondLine := strings.Index(sampleDoc, "Second")
	thirdLine := strings.Index(sampleDoc, "Third")

	spans := Scan(doc, []Range{{From: secondLine, To: thirdLine}}, "doc")
	require.Equal(t, []string{"@doe99"}, Keys(spans))
	for _, s := range spans {
		require.GreaterOrEqual(t, s.Start, secondLine)
		require.LessOrEqual(t, s.End, thirdLine)
	}
	require.Equal(t, "@doe99 [ch. 2]", sampleDoc[spans[0].Start:spans[len(spans)-1].End])
}

func TestScan_NoRangesYieldsEmptyCollection(t *testing.T) {
	spans := Scan(Text(sampleDoc), nil, "doc")
	require.NotNil(t, spans)
	require.Empty(t, spans)
}

func TestScan_ClampsOutOfBoundsRanges(t *testing.T) {
	doc := Text("@a and @b")
	spans := Scan(doc, []Range{{From: -20, To: 2}, {From: 7, To: 500}, {From: 800, To: 900}, {From: 5, To: 3}}, "doc")
	require.Equal(t, []string{"@a", "@b"}, Keys(spans))
}

func TestScan_OverlappingRangesDoNotDuplicate(t *testing.T) {
	doc := Text(sampleDoc)
	full := Scan(doc, []Range{{From: 0, To: doc.Len()}}, "doc")

	overlapping := Scan(doc, []Range{
		{From: 0, To: 60},
		{From: 20, To: doc.Len()},
		{From: 0, To: doc.Len()},
	}, "doc")
	require.Equal(t, full, overlapping)
}

func TestScan_UnorderedRanges(t *testing.T) {
	doc := Text(sampleDoc)
	secondLine := strings.Index(sampleDoc, "Second")

	ordered := Scan(doc, []Range{{From: 0, To: secondLine}, {From: secondLine, To: doc.Len()}}, "doc")
	reversed := Scan(doc, []Range{{From: secondLine, To: doc.Len()}, {From: 0, To: secondLine}}, "doc")
	require.Equal(t, ordered, reversed)
}

func TestScan_RangeSplittingAConstruct(t *testing.T) {
	text := "see [@a; @b] end"
	doc := Text(text)
	mid := strings.Index(text, ";")

	require.NotPanics(t, func() {
		spans := Scan(doc, []Range{{From: 0, To: mid}, {From: mid, To: doc.Len()}}, "doc")
		for i := 1; i < len(spans); i++ {
			require.LessOrEqual(t, spans[i-1].End, spans[i].Start)
		}
	})
}

func TestScan_RangeEndsInsideMultibyteRune(t *testing.T) {
	text := "é @ünï [p. ü]"
	doc := Text(text)

	// Cut through the first byte of 'é' and the last byte of 'ü'.
	spans := Scan(doc, []Range{{From: 1, To: doc.Len() - 2}}, "doc")
	for _, s := range spans {
		require.True(t, utf8.ValidString(text[s.Start:s.End]))
	}
	require.Equal(t, []string{"@ünï"}, Keys(spans))
}

func TestScan_Deterministic(t *testing.T) {
	doc := Text(sampleDoc)
	ranges := []Range{{From: 0, To: 40}, {From: 49, To: doc.Len()}}
	require.Equal(t, Scan(doc, ranges, "doc"), Scan(doc, ranges, "doc"))
}

func TestScan_UnrelatedEditOnlyShiftsOffsets(t *testing.T) {
	before := ScanText(sampleDoc, "doc")

	edited := "A new opening sentence.\n" + sampleDoc
	shift := len(edited) - len(sampleDoc)
	after := ScanText(edited, "doc")

	require.Len(t, after, len(before))
	for i := range before {
		require.Equal(t, before[i].Kind, after[i].Kind)
		require.Equal(t, before[i].Key, after[i].Key)
		require.Equal(t, before[i].Start+shift, after[i].Start)
		require.Equal(t, before[i].End+shift, after[i].End)
	}
}

func TestScan_DocumentsScannedConcurrentlyStayIndependent(t *testing.T) {
	scanner := NewScanner(nil)
	docs := map[string]string{
		"a.md": strings.Repeat("lorem @alpha ipsum ", 200),
		"b.md": strings.Repeat("[see @beta; @gamma] ", 200),
		"c.md": strings.Repeat("no citations here ", 200),
	}
	want := make(map[string][]Span, len(docs))
	for id, text := range docs {
		want[id] = scanner.ScanAll(Text(text), id)
	}

	var wg sync.WaitGroup
	for id, text := range docs {
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Equal(t, want[id], scanner.ScanAll(Text(text), id))
			}()
		}
	}
	wg.Wait()
}

func TestSpanAt(t *testing.T) {
	text := "[see @smith2000; @jones1999, p. 33]"
	spans := ScanText(text, "doc")

	s, ok := SpanAt(spans, 7)
	require.True(t, ok)
	require.Equal(t, "@smith2000", s.Key)

	s, ok = SpanAt(spans, 16)
	require.True(t, ok)
	require.Equal(t, KindFormatting, s.Kind)

	_, ok = SpanAt(spans, len(text))
	require.False(t, ok)
	_, ok = SpanAt(nil, 0)
	require.False(t, ok)
}
