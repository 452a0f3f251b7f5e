// Package watcher notifies when watched files change on disk, coalescing
// bursts of events (editors often write, rename and chmod on one save).
// Notifications are published to subscribers as pubsub events: ChangedEvent
// for files that exist after the burst, RemovedEvent for files that do not.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/pubsub"
)

// Change lists the watched files touched during one debounce window.
type Change struct {
	Paths []string
}

// Has reports whether path is among the changed files.
func (c Change) Has(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return slices.Contains(c.Paths, abs)
}

// Watcher monitors a set of files for changes and publishes notifications.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     map[string]struct{}
	debounce  time.Duration
	broker    *pubsub.Broker[Change]
	done      chan struct{}
}

var _ pubsub.Subscriber[Change] = (*Watcher)(nil)

// Config holds watcher configuration options.
type Config struct {
	Paths       []string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(paths ...string) Config {
	return Config{
		Paths:       paths,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a new file watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	paths := make(map[string]struct{}, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		paths[abs] = struct{}{}
	}

	return &Watcher{
		fsWatcher: fsw,
		paths:     paths,
		debounce:  cfg.DebounceDur,
		// Subscribers reload everything on a change, so one pending
		// notification of each type is enough.
		broker: pubsub.NewBrokerWithBuffer[Change](2),
		done:   make(chan struct{}),
	}, nil
}

// Subscribe returns a channel of change notifications, open until ctx is
// done or the watcher stops. Subscribe before Start to see every change.
func (w *Watcher) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return w.broker.Subscribe(ctx)
}

// Start begins watching the directories containing the files. Watching
// directories keeps files replaced by an atomic rename in view.
func (w *Watcher) Start() error {
	dirs := make(map[string]struct{})
	for p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
		log.Debug(log.CatWatcher, "Watching directory", "dir", dir)
	}

	go w.loop()
	return nil
}

// Stop terminates the watcher, closes every subscription and releases
// resources.
func (w *Watcher) Stop() error {
	close(w.done)
	w.broker.Close()
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]struct{})
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			path, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			pending[path] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if len(pending) == 0 {
				continue
			}
			w.flush(pending)
			clear(pending)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// flush publishes the files touched in one debounce window, split by
// whether they still exist.
func (w *Watcher) flush(pending map[string]struct{}) {
	var changed, removed Change
	for p := range pending {
		if _, err := os.Stat(p); err != nil && os.IsNotExist(err) {
			removed.Paths = append(removed.Paths, p)
		} else {
			changed.Paths = append(changed.Paths, p)
		}
	}

	if len(removed.Paths) > 0 {
		slices.Sort(removed.Paths)
		log.Debug(log.CatWatcher, "Files removed", "paths", removed.Paths)
		w.broker.Publish(pubsub.RemovedEvent, removed)
	}
	if len(changed.Paths) > 0 {
		slices.Sort(changed.Paths)
		log.Debug(log.CatWatcher, "Files changed", "paths", changed.Paths)
		w.broker.Publish(pubsub.ChangedEvent, changed)
	}
}

// relevant reports whether event touches a watched file, returning the
// file's path.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return "", false
	}
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}
	_, ok := w.paths[path]
	return path, ok
}
