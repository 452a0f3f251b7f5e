package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/citemark/internal/config"
	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/references"
	"github.com/zjrosen/citemark/internal/store"
)

// newResolver builds the pandoc resolver described by c, memoized unless
// the cache is disabled. bypass keeps the wrapper but always runs pandoc.
// The returned cleanup closes the persistent store, if one was opened.
func newResolver(c config.Config, bypass bool) (references.Resolver, func(), error) {
	pandoc := references.NewPandoc(c.Pandoc)
	if !c.Cache.Enabled {
		return pandoc, func() {}, nil
	}

	opts := []references.MemoOption{
		references.WithTTL(c.Cache.TTL),
		references.WithBypass(bypass),
	}

	var closeStore func()
	// The store is a cache tier too, so bypassing skips it.
	if c.Cache.Path != "" && !bypass {
		path := expandHome(c.Cache.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating cache directory: %w", err)
		}
		s, err := store.Open(path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, references.WithStore(s))
		closeStore = func() {
			if err := s.Close(); err != nil {
				log.ErrorErr(log.CatStore, "Failed to close store", err)
			}
		}
	}

	memo := references.NewMemoized(pandoc, opts...)
	cleanup := func() {
		stats := memo.Stats()
		log.Debug(log.CatCache, "Bibliography cache", "hits", stats.Hits, "misses", stats.Misses)
		if closeStore != nil {
			closeStore()
		}
	}
	return memo, cleanup, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
