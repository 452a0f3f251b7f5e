package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/citemark/internal/pubsub"
	"github.com/zjrosen/citemark/internal/watcher"
)

func startWatcher(t *testing.T, paths ...string) <-chan pubsub.Event[watcher.Change] {
	t.Helper()
	w, err := watcher.New(watcher.Config{Paths: paths, DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	events := w.Subscribe(context.Background())
	require.NoError(t, w.Start(), "failed to start watcher")
	return events
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "paper.md")
	require.NoError(t, os.WriteFile(doc, []byte("@a"), 0o644))

	onChange := startWatcher(t, doc)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(doc, []byte(fmt.Sprintf("@a%d", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case event := <-onChange:
		assert.Equal(t, pubsub.ChangedEvent, event.Type)
		assert.True(t, event.Payload.Has(doc))
		assert.Len(t, event.Payload.Paths, 1)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "paper.md")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("@a"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))

	onChange := startWatcher(t, doc)

	require.NoError(t, os.WriteFile(other, []byte("other content"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_ReportsEachWatchedFile(t *testing.T) {
	docDir, bibDir := t.TempDir(), t.TempDir()
	doc := filepath.Join(docDir, "paper.md")
	bib := filepath.Join(bibDir, "refs.bib")
	require.NoError(t, os.WriteFile(doc, []byte("@a"), 0o644))
	require.NoError(t, os.WriteFile(bib, []byte("@book{a,}"), 0o644))

	onChange := startWatcher(t, doc, bib)

	require.NoError(t, os.WriteFile(bib, []byte("@book{a,}\n@book{b,}"), 0o644))

	select {
	case event := <-onChange:
		assert.True(t, event.Payload.Has(bib))
		assert.False(t, event.Payload.Has(doc))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for bibliography write")
	}
}

func TestWatcher_AtomicRenameSave(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "paper.md")
	require.NoError(t, os.WriteFile(doc, []byte("@a"), 0o644))

	onChange := startWatcher(t, doc)

	tmp := filepath.Join(dir, ".paper.md.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("@b"), 0o644))
	require.NoError(t, os.Rename(tmp, doc))

	select {
	case event := <-onChange:
		assert.Equal(t, pubsub.ChangedEvent, event.Type)
		assert.True(t, event.Payload.Has(doc))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for renamed-over file")
	}
}

func TestWatcher_Removed(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "paper.md")
	require.NoError(t, os.WriteFile(doc, []byte("@a"), 0o644))

	onChange := startWatcher(t, doc)

	require.NoError(t, os.Remove(doc))

	select {
	case event := <-onChange:
		assert.Equal(t, pubsub.RemovedEvent, event.Type)
		assert.True(t, event.Payload.Has(doc))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for removed file")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "paper.md")
	require.NoError(t, os.WriteFile(doc, []byte("@a"), 0o644))

	w, err := watcher.New(watcher.DefaultConfig(doc))
	require.NoError(t, err)
	events := w.Subscribe(context.Background())
	require.NoError(t, w.Start())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}

	_, ok := <-events
	assert.False(t, ok, "subscriptions close on Stop")
}

func TestNew_RequiresPaths(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/docs/paper.md", "/docs/refs.bib")
	assert.Equal(t, []string{"/docs/paper.md", "/docs/refs.bib"}, cfg.Paths)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDur)
}
