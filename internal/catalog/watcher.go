package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "stock-bot/internal/common/errors"
	"stock-bot/internal/common/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher fires a callback when a single file is written, created, renamed or
// removed. The parent directory is watched so editors that replace the file
// through a rename are picked up. Bursts of events collapse into one call.
type Watcher struct {
	fw       *fsnotify.Watcher
	path     string
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
	pending sync.WaitGroup
}

// NewWatcher creates a watcher for path. A zero debounce uses 500ms.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		fw:       fw,
		path:     abs,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts monitoring. onChange runs on its own goroutine.
func (w *Watcher) Watch(onChange func()) error {
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					w.schedule(onChange)
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}

			case <-w.done:
				return
			}
		}
	}()
	return nil
}

func (w *Watcher) schedule(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			onChange()
		}
	})
}

// Stop ends monitoring. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fw.Close()
	w.wg.Wait()
	w.pending.Wait()
	return err
}

// ReloadOnChange refreshes store from src every time w fires. A failed reload
// keeps the previous snapshot.
func ReloadOnChange(w *Watcher, store *Store, src Source, timeout time.Duration, log logger.Logger) error {
	errHandler := apperrors.NewErrorHandler(log)
	return w.Watch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := store.Refresh(ctx, src); err != nil {
			errHandler.Handle("catalog.reload", apperrors.NewCatalogReloadFailedError(src.Name(), err))
			return
		}
		log.Info("catalog reloaded", map[string]interface{}{
			"source":  src.Name(),
			"records": store.Len(),
		})
	})
}
