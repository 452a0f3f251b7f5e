package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Assignments(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"References toggles with r", km.References, []string{"r"}},
		{"Reload uses ctrl+r", km.Reload, []string{"ctrl+r"}},
		{"Quit uses q and ctrl+c", km.Quit, []string{"q", "ctrl+c"}},
		{"NextKey uses n and tab", km.NextKey, []string{"n", "tab"}},
		{"PrevKey uses N and shift+tab", km.PrevKey, []string{"N", "shift+tab"}},
		{"Help uses ?", km.Help, []string{"?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

func TestDefaultKeyMap_NoDuplicateKeys(t *testing.T) {
	km := DefaultKeyMap()

	seen := make(map[string]string)
	for _, group := range km.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				if other, ok := seen[k]; ok {
					t.Fatalf("key %q bound to both %q and %q", k, other, b.Help().Desc)
				}
				seen[k] = b.Help().Desc
			}
		}
	}
}

func TestDefaultKeyMap_HelpText(t *testing.T) {
	km := DefaultKeyMap()

	for _, b := range km.ShortHelp() {
		require.NotEmpty(t, b.Help().Key)
		require.NotEmpty(t, b.Help().Desc)
	}
	require.Len(t, km.FullHelp(), 3)
}
