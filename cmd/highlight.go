package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/citemark/internal/highlight"
)

var highlightColor string

var highlightCmd = &cobra.Command{
	Use:   "highlight FILE|-",
	Short: "Print a document with its citations coloured",
	Long: `Print a markdown document with citation keys, their formatting and the
extra text around them coloured using the configured theme.

Examples:
  citemark highlight paper.md | less -R
  citemark highlight --color always paper.md > paper.ansi`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	highlightCmd.Flags().StringVar(&highlightColor, "color", "auto", "colour output: auto, always or never")
	rootCmd.AddCommand(highlightCmd)
}

func runHighlight(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	cleanup, err := startDiagnostics("citemark-highlight", false)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	profile, err := colorProfile(highlightColor, out)
	if err != nil {
		return err
	}
	lipgloss.SetColorProfile(profile)

	text, sourceID, err := readDocument(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	ranges, _ := parseRanges(nil, len(text))
	spans := scanDocument(cmd, text, ranges, sourceID)
	_, err = io.WriteString(out, highlight.NewTheme(c.Theme).Render(text, spans))
	return err
}

// colorProfile maps --color to a termenv profile. "auto" colours only
// when out is a terminal.
func colorProfile(mode string, out io.Writer) (termenv.Profile, error) {
	switch mode {
	case "always":
		return termenv.TrueColor, nil
	case "never":
		return termenv.Ascii, nil
	case "auto":
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return termenv.EnvColorProfile(), nil
		}
		return termenv.Ascii, nil
	default:
		return termenv.Ascii, fmt.Errorf("invalid --color %q: want auto, always or never", mode)
	}
}
