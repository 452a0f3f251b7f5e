package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/citemark/internal/markdown"
	"github.com/zjrosen/citemark/internal/presentation"
	"github.com/zjrosen/citemark/internal/references"
)

var (
	refsFormat  string
	refsNoCache bool
	refsWidth   int
)

var refsCmd = &cobra.Command{
	Use:   "refs FILE|-",
	Short: "Render the bibliography for the keys a document cites",
	Long: `Render the reference list for every key a document cites, using pandoc
and the configured bibliography.

Formats:
  markdown  reference list rendered for the terminal (default)
  raw       the same list as unrendered markdown
  table     one row per key with its entry
  json/yaml one object per key with found and markdown fields

Results are cached per set of keys and bibliography version. Use --no-cache
to always run pandoc.

Examples:
  citemark refs --bibliography refs.bib paper.md
  citemark refs --format json paper.md | jq '.[] | select(.found | not)'`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

func init() {
	refsCmd.Flags().StringVarP(&refsFormat, "format", "f", "markdown", "output format: markdown, raw, table, json or yaml")
	refsCmd.Flags().BoolVar(&refsNoCache, "no-cache", false, "always run pandoc")
	refsCmd.Flags().IntVar(&refsWidth, "width", 80, "wrap width for markdown output")
	rootCmd.AddCommand(refsCmd)
}

func runRefs(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	mode := strings.ToLower(refsFormat)
	var format presentation.Format
	if mode != "markdown" && mode != "raw" {
		if format, err = presentation.ParseFormat(mode); err != nil {
			return err
		}
	}

	cleanup, err := startDiagnostics("citemark-refs", false)
	if err != nil {
		return err
	}
	defer cleanup()

	text, sourceID, err := readDocument(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	resolver, closeResolver, err := newResolver(c, refsNoCache)
	if err != nil {
		return err
	}
	defer closeResolver()

	req := references.NewRequest(sourceID, text)
	bib, err := resolver.Resolve(commandContext(cmd), req)
	if errors.Is(err, references.ErrNoCitations) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No citations in this document.")
		return nil
	}
	if err != nil {
		return refsError(err)
	}

	out := cmd.OutOrStdout()
	switch mode {
	case "raw":
		_, err = io.WriteString(out, bib.Markdown())
		return err
	case "markdown":
		r, err := markdown.New(refsWidth, c.Viewer.MarkdownStyle)
		if err != nil {
			return err
		}
		rendered, err := r.Render(bib.Markdown())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, rendered)
		return err
	default:
		return presentation.NewFormatter(out, format).FormatEntries(presentation.FromBibliography(bib))
	}
}

// refsError explains resolver failures in terms of the settings to change.
func refsError(err error) error {
	switch {
	case errors.Is(err, references.ErrBibliographyNotConfigured):
		return fmt.Errorf("%w: pass --bibliography or set pandoc.bibliography in %s", err, configPath())
	case errors.Is(err, references.ErrPandocNotConfigured):
		return fmt.Errorf("%w: set pandoc.path in %s", err, configPath())
	case errors.Is(err, references.ErrTimeout):
		return fmt.Errorf("%w: raise pandoc.timeout or check the bibliography", err)
	default:
		return fmt.Errorf("rendering references: %w", err)
	}
}
