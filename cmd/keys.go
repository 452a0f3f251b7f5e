package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/citemark/internal/presentation"
)

var keysFormat string

var keysCmd = &cobra.Command{
	Use:   "keys FILE|-",
	Short: "List the distinct citation keys in a document",
	Long: `List every distinct citation key cited by a document in order of first
appearance, with how often it is cited and the line it first appears on.

Examples:
  citemark keys paper.md
  citemark keys --format table paper.md
  citemark keys paper.md | xargs -I{} grep -c {} refs.bib`,
	Args: cobra.ExactArgs(1),
	RunE: runKeys,
}

func init() {
	keysCmd.Flags().StringVarP(&keysFormat, "format", "f", "plain", "output format: plain, table, json or yaml")
	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	if _, err := loadedConfig(); err != nil {
		return err
	}
	format, err := presentation.ParseFormat(keysFormat)
	if err != nil {
		return err
	}

	cleanup, err := startDiagnostics("citemark-keys", false)
	if err != nil {
		return err
	}
	defer cleanup()

	text, sourceID, err := readDocument(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	ranges, _ := parseRanges(nil, len(text))
	spans := scanDocument(cmd, text, ranges, sourceID)
	return presentation.NewFormatter(cmd.OutOrStdout(), format).
		FormatKeys(presentation.FromKeys(text, spans))
}
