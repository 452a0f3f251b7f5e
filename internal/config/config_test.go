package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "pandoc", cfg.Pandoc.Path)
	require.Equal(t, 10*time.Second, cfg.Pandoc.Timeout)
	require.False(t, cfg.Pandoc.Configured(), "no bibliography by default")
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	require.True(t, cfg.Viewer.Watch)
	require.Equal(t, "dark", cfg.Viewer.MarkdownStyle)
	require.False(t, cfg.Tracing.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	defaults := Defaults()
	require.Equal(t, defaults.Pandoc, cfg.Pandoc)
	require.Equal(t, defaults.Cache, cfg.Cache)
	require.Equal(t, defaults.Viewer, cfg.Viewer)
	require.Equal(t, defaults.Theme, cfg.Theme)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative timeout", func(c *Config) { c.Pandoc.Timeout = -time.Second }, "pandoc.timeout"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Minute }, "cache.ttl"},
		{"negative debounce", func(c *Config) { c.Viewer.Debounce = -1 }, "viewer.debounce"},
		{"markdown style", func(c *Config) { c.Viewer.MarkdownStyle = "neon" }, "viewer.markdown_style"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"theme colour", func(c *Config) { c.Theme.Extra = "yellow" }, "theme.extra"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "tracing.sample_rate"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "kafka" }, "tracing.exporter"},
		{"otlp endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}, "tracing.otlp_endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateTheme_AcceptsShortAndEmpty(t *testing.T) {
	require.NoError(t, ValidateTheme(ThemeConfig{CitationKey: "#fff", Formatting: "", Extra: "#A1B2C3"}))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

func TestSaveTheme_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	theme := ThemeConfig{CitationKey: "#FF0000", Formatting: "#00FF00", Extra: "#0000FF"}
	require.NoError(t, SaveTheme(path, theme))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# citemark configuration", "comments survive")

	var raw struct {
		Pandoc map[string]any `yaml:"pandoc"`
		Theme  ThemeConfig    `yaml:"theme"`
	}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	require.Equal(t, theme, raw.Theme)
	require.Equal(t, "pandoc", raw.Pandoc["path"])
}

func TestSaveTheme_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	theme := ThemeConfig{CitationKey: "#123456"}
	require.NoError(t, SaveTheme(path, theme))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw struct {
		Theme ThemeConfig `yaml:"theme"`
	}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	require.Equal(t, theme, raw.Theme)
}

func TestSaveTheme_RejectsInvalidColour(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := SaveTheme(path, ThemeConfig{CitationKey: "blue"})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "nothing is written on error")
}
