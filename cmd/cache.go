package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/citemark/internal/store"
)

var cacheOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the bibliography cache",
	Long: `Rendered bibliographies are kept in a sqlite file when cache.path is set.
These commands report on and prune that file.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many bibliographies are cached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, path, err := openCacheStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		n, err := s.Count(commandContext(cmd))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cached bibliographies\n", path, n)
		return err
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached bibliographies older than a duration",
	Example: `  citemark cache prune --older-than 720h
  citemark cache prune --older-than 1s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cacheOlderThan < 0 {
			return fmt.Errorf("--older-than must not be negative")
		}
		s, path, err := openCacheStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		n, err := s.Prune(commandContext(cmd), time.Now().Add(-cacheOlderThan))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: pruned %d cached bibliographies\n", path, n)
		return err
	},
}

func init() {
	cachePruneCmd.Flags().DurationVar(&cacheOlderThan, "older-than", 30*24*time.Hour, "prune entries created before this long ago")

	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCacheStore opens the configured cache file. It never creates one.
func openCacheStore() (*store.Store, string, error) {
	c, err := loadedConfig()
	if err != nil {
		return nil, "", err
	}
	if c.Cache.Path == "" {
		return nil, "", errors.New("no persistent cache: set cache.path in " + configPath())
	}

	path := expandHome(c.Cache.Path)
	if _, err := os.Stat(path); err != nil {
		return nil, "", fmt.Errorf("cache %s: %w", path, err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}
