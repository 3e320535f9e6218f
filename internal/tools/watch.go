// ABOUTME: Watches the tool catalog file and hot-reloads it on change.
// ABOUTME: A broken edit keeps the last good catalog in effect.

package tools

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a catalog when its file changes on disk. Events are
// debounced so editors that write in several steps trigger one reload.
type Watcher struct {
	catalog  *Catalog
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewWatcher starts watching the catalog's directory. Watching the directory
// rather than the file survives rename-and-replace saves.
func NewWatcher(catalog *Catalog, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		catalog:  catalog,
		watcher:  fsw,
		logger:   logger.With("component", "tools"),
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	if err := fsw.Add(filepath.Dir(catalog.path)); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// run processes file system events until the watcher stops.
func (w *Watcher) run() {
	target := filepath.Clean(w.catalog.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("tool catalog changed", "op", event.Op.String())
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("tool catalog watch error", "error", err)

		case <-w.stopCh:
			return
		}
	}
}

// scheduleReload resets the debounce timer.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload swaps in the new catalog, or keeps the old one when the edit is broken.
func (w *Watcher) reload() {
	if err := w.catalog.Reload(); err != nil {
		w.logger.Error("tool catalog reload failed, keeping previous catalog", "error", err)
		return
	}
	w.logger.Info("tool catalog reloaded", "tools", w.catalog.Len())
}

// Close stops the watcher. It is safe to call multiple times.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}
