package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/citemark/internal/config"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	cfgErr    error
)

var rootCmd = &cobra.Command{
	Use:   "citemark [file]",
	Short: "Highlight pandoc citations in markdown",
	Long: `citemark finds pandoc citations such as [see @smith2000, p. 33] in
markdown documents and highlights them.

Run it with a file to open the viewer, or use one of the subcommands to
scan, highlight or resolve citations from scripts and editors.`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runView(cmd, args[0])
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/citemark/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs (also enabled by CITEMARK_DEBUG)")
	rootCmd.PersistentFlags().String("bibliography", "",
		"bibliography file (overrides pandoc.bibliography)")
	rootCmd.PersistentFlags().String("csl", "",
		"citation style file (overrides pandoc.csl)")

	_ = viper.BindPFlag("pandoc.bibliography", rootCmd.PersistentFlags().Lookup("bibliography"))
	_ = viper.BindPFlag("pandoc.csl", rootCmd.PersistentFlags().Lookup("csl"))
}

func initConfig() {
	setDefaults(viper.GetViper(), config.Defaults())
	bindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .citemark/config.yaml (current directory)
		// 2. ~/.config/citemark/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else if dir := config.DefaultConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			// No config file found - create one from the default template.
			if defaultPath := defaultConfigPath(); defaultPath != "" {
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		} else {
			cfgErr = fmt.Errorf("reading config %s: %w", viper.ConfigFileUsed(), err)
			return
		}
	}

	cfg = config.Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		cfgErr = fmt.Errorf("decoding config: %w", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		cfgErr = fmt.Errorf("invalid configuration: %w", err)
	}
}

const localConfigPath = ".citemark/config.yaml"

// setDefaults registers every config key so environment variables and
// flags bound through viper reach Unmarshal.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("pandoc.path", d.Pandoc.Path)
	v.SetDefault("pandoc.bibliography", d.Pandoc.Bibliography)
	v.SetDefault("pandoc.csl", d.Pandoc.CSL)
	v.SetDefault("pandoc.timeout", d.Pandoc.Timeout)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("viewer.show_references", d.Viewer.ShowReferences)
	v.SetDefault("viewer.watch", d.Viewer.Watch)
	v.SetDefault("viewer.debounce", d.Viewer.Debounce)
	v.SetDefault("viewer.line_numbers", d.Viewer.LineNumbers)
	v.SetDefault("viewer.markdown_style", d.Viewer.MarkdownStyle)
	v.SetDefault("theme.citation_key", d.Theme.CitationKey)
	v.SetDefault("theme.formatting", d.Theme.Formatting)
	v.SetDefault("theme.extra", d.Theme.Extra)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("log_level", d.LogLevel)
}

// bindEnv maps CITEMARK_PANDOC_BIBLIOGRAPHY and friends onto config keys.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CITEMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// defaultConfigPath is where a missing config file gets created: the
// --config path when given, else the user config directory.
func defaultConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if dir := config.DefaultConfigDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return ""
}

// loadedConfig returns the configuration read by initConfig.
func loadedConfig() (config.Config, error) {
	return cfg, cfgErr
}

// configPath is where theme changes are saved.
func configPath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	if p := defaultConfigPath(); p != "" {
		return p
	}
	return localConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
