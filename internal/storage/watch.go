package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 150 * time.Millisecond

// Watch reloads the document whenever another process rewrites the file and
// notifies observers of the new content. Writes made by this store are
// recognised and ignored. Watch blocks until ctx is done.
func (store *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create state watcher: %w", err)
	}
	defer watcher.Close()

	// Atomic writes replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(store.path)); err != nil {
		return fmt.Errorf("watch state directory: %w", err)
	}

	target := filepath.Clean(store.path)
	var (
		debounce *time.Timer
		reload   <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			reload = debounce.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			store.logger.Warn("state watcher error", "error", err)
		case <-reload:
			reload = nil
			if _, err := store.Load(ctx); err != nil {
				store.logger.Warn("reload state document", "error", err)
			}
		}
	}
}
