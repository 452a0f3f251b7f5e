package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/lsp"
)

var (
	lspLogFile   string
	lspVerbosity int
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the citation language server on stdio",
	Long: `Run a language server that highlights citations through semantic tokens
and shows bibliography entries on hover.

The server speaks JSON-RPC on stdin and stdout, so all logging goes to
--log-file. Hover needs a bibliography (--bibliography or
pandoc.bibliography); without one it shows only the key.

Example (neovim):
  vim.lsp.start({ name = "citemark", cmd = { "citemark", "lsp" } })`,
	Args: cobra.NoArgs,
	RunE: runLSP,
}

func init() {
	lspCmd.Flags().StringVar(&lspLogFile, "log-file", "", "write protocol and debug logs to this file")
	lspCmd.Flags().IntVarP(&lspVerbosity, "verbose", "v", 1, "protocol log verbosity (0 silences it)")
	rootCmd.AddCommand(lspCmd)
}

func runLSP(_ *cobra.Command, _ []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	if lspLogFile != "" {
		// Logger used by glsp
		commonlog.Configure(lspVerbosity, &lspLogFile)
		closeLog, err := log.Init(lspLogFile)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer closeLog()
		log.SetMinLevel(log.ParseLevel(c.LogLevel))
		if debugEnabled() {
			log.SetMinLevel(log.LevelDebug)
		}
	} else {
		commonlog.Configure(0, nil)
	}

	stopTracing := startTracing()
	defer stopTracing()

	opts := lsp.Options{Name: "citemark", Version: version}
	if c.Pandoc.Configured() {
		resolver, closeResolver, err := newResolver(c, false)
		if err != nil {
			return err
		}
		defer closeResolver()
		opts.Resolver = resolver
	}

	log.Info(log.CatLSP, "Starting language server", "version", version)
	return lsp.New(opts).RunStdio()
}
