package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/config"
	"github.com/zjrosen/citemark/internal/highlight"
)

const themeSample = `Blah blah [see @doe99, pp. 33-35; also @smith04, chap. 1].
Blah blah [@doe99, pp. 33-35, 38-39 and *passim*].
@smith04 [p. 33] says blah.
Smith says blah [-@smith04].
`

var (
	themeCitationKey string
	themeFormatting  string
	themeExtra       string
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the highlight colours",
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current colours and a sample",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return showTheme(cmd.OutOrStdout(), c.Theme)
	},
}

var themeSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save new colours to the config file",
	Long: `Save highlight colours to the config file. Colours are hex values such as
"#8BE9FD". Flags left out keep their current value.

Example:
  citemark theme set --citation-key "#FF79C6" --extra "#50FA7B"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}

		theme := c.Theme
		if cmd.Flags().Changed("citation-key") {
			theme.CitationKey = themeCitationKey
		}
		if cmd.Flags().Changed("formatting") {
			theme.Formatting = themeFormatting
		}
		if cmd.Flags().Changed("extra") {
			theme.Extra = themeExtra
		}

		path := configPath()
		if err := config.SaveTheme(path, theme); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved theme to %s\n\n", path)
		return showTheme(cmd.OutOrStdout(), theme)
	},
}

func init() {
	themeSetCmd.Flags().StringVar(&themeCitationKey, "citation-key", "", "colour of citation keys")
	themeSetCmd.Flags().StringVar(&themeFormatting, "formatting", "", "colour of brackets and separators")
	themeSetCmd.Flags().StringVar(&themeExtra, "extra", "", "colour of prefixes, locators and suffixes")

	themeCmd.AddCommand(themeShowCmd, themeSetCmd)
	rootCmd.AddCommand(themeCmd)
}

// showTheme lists each colour with a swatch, then the sample highlighted.
func showTheme(w io.Writer, tc config.ThemeConfig) error {
	theme := highlight.NewTheme(tc)
	rows := []struct {
		name  string
		value string
		kind  citation.Kind
	}{
		{"citation_key", tc.CitationKey, citation.KindCitationKey},
		{"formatting", tc.Formatting, citation.KindFormatting},
		{"extra", tc.Extra, citation.KindExtra},
	}

	label := lipgloss.NewStyle().Width(14)
	for _, r := range rows {
		value := r.value
		if value == "" {
			value = "(default)"
		}
		swatch := theme.Style(r.kind).Render("████")
		if _, err := fmt.Fprintf(w, "%s%s %s\n", label.Render(r.name), swatch, value); err != nil {
			return err
		}
	}

	spans := citation.ScanText(themeSample, "sample")
	_, err := fmt.Fprintf(w, "\n%s", theme.Render(themeSample, spans))
	return err
}
