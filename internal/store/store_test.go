package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bib.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	created := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.Put(ctx, Entry{CacheKey: "abc", File: "paper.md", Markdown: "Smith 2000", CreatedAt: created}))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, Entry{CacheKey: "abc", File: "paper.md", Markdown: "Smith 2000", CreatedAt: created}, got)
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	require.NoError(t, s.Put(ctx, Entry{CacheKey: "k", File: "a.md", Markdown: "old"}))
	require.NoError(t, s.Put(ctx, Entry{CacheKey: "k", File: "a.md", Markdown: "new"}))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "new", got.Markdown)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStore_PutRejectsEmptyKey(t *testing.T) {
	s, _ := openTemp(t)
	require.Error(t, s.Put(context.Background(), Entry{File: "a.md"}))
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	now := time.Now()
	require.NoError(t, s.Put(ctx, Entry{CacheKey: "old", File: "a.md", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.Put(ctx, Entry{CacheKey: "new", File: "a.md", CreatedAt: now}))

	n, err := s.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.Get(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "new")
	require.NoError(t, err)
}

func TestStore_ReopenKeepsEntriesAndSchema(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	require.NoError(t, s.Put(ctx, Entry{CacheKey: "k", File: "a.md", Markdown: "kept"}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	var version int
	require.NoError(t, reopened.db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, schemaVersion, version)

	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "kept", got.Markdown)
}

func TestStore_RejectsNewerSchema(t *testing.T) {
	s, path := openTemp(t)
	_, err := s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "newer than supported")
}
