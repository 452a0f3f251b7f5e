package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/citemark/internal/viewer"
)

var (
	viewRefs    bool
	viewNoWatch bool
)

var viewCmd = &cobra.Command{
	Use:   "view FILE|-",
	Short: "Open a document in the citation viewer",
	Long: `Open a markdown document full screen with its citations highlighted.

Only the lines on screen are scanned, so large documents open instantly.
The file is reloaded when it changes on disk. Use "-" to read stdin.

Keys:
  n / N    select the next / previous cited key
  r        toggle the reference panel
  ctrl+r   reload the document
  ?        full help

Example:
  citemark view paper.md
  citemark view --refs --bibliography refs.bib paper.md
  pandoc -t markdown draft.docx | citemark view -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd, args[0])
	},
}

func init() {
	viewCmd.Flags().BoolVar(&viewRefs, "refs", false, "open with the reference panel visible")
	viewCmd.Flags().BoolVar(&viewNoWatch, "no-watch", false, "do not reload when the file changes")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, path string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	cleanup, err := startDiagnostics("citemark", true)
	if err != nil {
		return err
	}
	defer cleanup()

	if viewRefs {
		c.Viewer.ShowReferences = true
	}
	if viewNoWatch {
		c.Viewer.Watch = false
	}

	opts := viewer.Options{Path: path, Config: c}
	if path == "-" {
		text, sourceID, err := readDocument(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if text == "" {
			return fmt.Errorf("stdin is empty")
		}
		opts = viewer.Options{Content: text, SourceID: sourceID, Config: c}
	}

	// Without a bibliography the panel explains how to configure one.
	if c.Pandoc.Configured() {
		resolver, closeResolver, err := newResolver(c, false)
		if err != nil {
			return err
		}
		defer closeResolver()
		opts.Resolver = resolver
	}

	return viewer.Run(opts)
}
