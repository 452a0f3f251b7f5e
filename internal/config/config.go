// Package config provides configuration types and defaults for citemark.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/zjrosen/citemark/internal/log"
)

// Config holds all configuration options for citemark.
type Config struct {
	Pandoc   PandocConfig  `mapstructure:"pandoc"`
	Cache    CacheConfig   `mapstructure:"cache"`
	Viewer   ViewerConfig  `mapstructure:"viewer"`
	Theme    ThemeConfig   `mapstructure:"theme"`
	Tracing  TracingConfig `mapstructure:"tracing"`
	LogLevel string        `mapstructure:"log_level"` // debug, info (default), warn, error
}

// PandocConfig locates the pandoc binary and the bibliography it renders.
type PandocConfig struct {
	Path         string        `mapstructure:"path"`         // pandoc executable (default: "pandoc" on PATH)
	Bibliography string        `mapstructure:"bibliography"` // .bib/.json/.yaml bibliography file
	CSL          string        `mapstructure:"csl"`          // optional citation style
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Configured reports whether a bibliography has been set.
func (p PandocConfig) Configured() bool {
	return p.Bibliography != ""
}

// CacheConfig controls memoization of rendered bibliographies.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	// Path is the sqlite file used to keep rendered bibliographies across
	// runs. Empty keeps the cache in memory only.
	Path string `mapstructure:"path"`
}

// ViewerConfig holds terminal viewer options.
type ViewerConfig struct {
	ShowReferences bool          `mapstructure:"show_references"`
	Watch          bool          `mapstructure:"watch"`
	Debounce       time.Duration `mapstructure:"debounce"`
	LineNumbers    bool          `mapstructure:"line_numbers"`
	MarkdownStyle  string        `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// ThemeConfig holds the colours of the three span kinds.
type ThemeConfig struct {
	CitationKey string `mapstructure:"citation_key" yaml:"citation_key"`
	Formatting  string `mapstructure:"formatting" yaml:"formatting"`
	Extra       string `mapstructure:"extra" yaml:"extra"`
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled"`

	// Exporter specifies the trace export backend.
	// Valid values: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output path for file exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the endpoint for OTLP exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate is the sampling rate from 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultConfigDir returns ~/.config/citemark, or "" when the home
// directory cannot be determined.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "citemark")
}

// DefaultTracesFilePath returns the default path for trace files.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultCachePath returns the default sqlite cache location.
func DefaultCachePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "bibliographies.db")
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateTheme checks every non-empty colour is a hex colour.
func ValidateTheme(theme ThemeConfig) error {
	for name, value := range map[string]string{
		"citation_key": theme.CitationKey,
		"formatting":   theme.Formatting,
		"extra":        theme.Extra,
	} {
		if value != "" && !hexColor.MatchString(value) {
			return fmt.Errorf("theme.%s must be a hex color like \"#8BE9FD\", got %q", name, value)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid exporter
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.Pandoc.Timeout < 0 {
		return fmt.Errorf("pandoc.timeout must not be negative, got %s", c.Pandoc.Timeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Viewer.Debounce < 0 {
		return fmt.Errorf("viewer.debounce must not be negative, got %s", c.Viewer.Debounce)
	}
	switch c.Viewer.MarkdownStyle {
	case "", "dark", "light":
	default:
		return fmt.Errorf("viewer.markdown_style must be \"dark\" or \"light\", got %q", c.Viewer.MarkdownStyle)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if err := ValidateTheme(c.Theme); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Pandoc: PandocConfig{
			Path:    "pandoc",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
			Path:    "", // memory only unless configured
		},
		Viewer: ViewerConfig{
			ShowReferences: false,
			Watch:          true,
			Debounce:       100 * time.Millisecond,
			LineNumbers:    true,
			MarkdownStyle:  "dark",
		},
		Theme: ThemeConfig{
			CitationKey: "#8BE9FD",
			Formatting:  "#6272A4",
			Extra:       "#F1FA8C",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		LogLevel: "info",
	}
}

// DefaultConfigTemplate returns the default config as YAML with comments.
func DefaultConfigTemplate() string {
	return `# citemark configuration

# Bibliography rendering through pandoc (used by the reference panel,
# 'citemark refs' and LSP hover)
pandoc:
  path: pandoc              # pandoc executable
  # bibliography: refs.bib  # .bib, .json or .yaml bibliography
  # csl: apa.csl            # optional citation style
  timeout: 10s

# Rendered bibliographies are memoized per (file, content)
cache:
  enabled: true
  ttl: 30m
  # path: ~/.config/citemark/bibliographies.db  # keep entries across runs

# Terminal viewer
viewer:
  show_references: false  # open with the reference panel visible (toggle with r)
  watch: true             # reload when the file changes on disk
  debounce: 100ms
  line_numbers: true
  # markdown_style: dark  # reference panel style: "dark" (default) or "light"

# Highlight colours
theme:
  citation_key: "#8BE9FD"
  formatting: "#6272A4"
  extra: "#F1FA8C"

# log_level: info  # debug, info, warn, error (logs are written only with --debug)

# Tracing of scan passes and bibliography resolution
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/citemark/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
