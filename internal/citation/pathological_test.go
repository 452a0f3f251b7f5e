package citation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Inputs that make the matcher try and reject a candidate at almost every
// position. Each must still finish in time roughly linear in its length.
func TestScan_PathologicalInputsFinish(t *testing.T) {
	const n = 20000
	const budget = 2 * time.Second

	tests := []struct {
		name  string
		text  string
		spans int
		key   string
	}{
		{
			name:  "unclosed key lists after a non-boundary",
			text:  "x" + strings.Repeat("[@a; ", n) + " @end",
			spans: 1,
			key:   "@end",
		},
		{
			name:  "unanchored keys with open locators",
			text:  strings.Repeat("a@b [", n) + " @end",
			spans: 1,
			key:   "@end",
		},
		{
			name:  "long suffix with no closing bracket",
			text:  "[@a " + strings.Repeat("x", 5*n) + " @end",
			spans: 1,
			key:   "@end",
		},
		{
			name:  "anchored keys whose locators never close",
			text:  strings.Repeat(" @k [p. 1", n) + "]",
			spans: n + 4,
			key:   "@k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started := time.Now()
			spans := ScanText(tt.text, "doc")
			elapsed := time.Since(started)

			require.Less(t, elapsed, budget, "scan of %d bytes took %s", len(tt.text), elapsed)
			require.Len(t, spans, tt.spans)
			require.Equal(t, KindCitationKey, spans[0].Kind)
			require.Equal(t, tt.key, spans[0].Key)
		})
	}
}

func TestMatcher_AlwaysAdvances(t *testing.T) {
	text := strings.Repeat("a@b ", 1000)
	m := DefaultGrammar.Matcher(text, 0)

	calls := 0
	for {
		_, ok := m.Next()
		calls++
		if !ok {
			break
		}
		require.Less(t, calls, len(text), "matcher made no progress")
	}
	require.Equal(t, 1, calls, "no key in the text is anchored")
}
