package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce collapses the burst of write events an atomic save emits
// into one change notification.
const defaultDebounce = 250 * time.Millisecond

// Watcher notifies when the data file changes on disk, so a CLI view can
// re-fetch and re-render. It watches the file's parent directory, which is
// the reliable way to catch the rename an atomic save ends with, and
// debounces rapid event bursts. This is a display convenience, not a sync
// protocol.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration

	mu       sync.Mutex
	modTime  time.Time
	size     int64
	OnChange func() error
	OnError  func(err error)
}

// NewWatcher creates a watcher for the data file at path. The file must
// exist when watching starts.
func NewWatcher(path string) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	stat, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		watcher:  fsWatcher,
		path:     absPath,
		debounce: defaultDebounce,
		modTime:  stat.ModTime(),
		size:     stat.Size(),
	}, nil
}

// SetDebounce overrides the debounce interval; useful in tests.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run blocks dispatching change notifications until the context ends.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var timerMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			absPath, err := filepath.Abs(event.Name)
			if err != nil || absPath != w.path {
				continue
			}

			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.handleChange)
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// handleChange confirms the file really changed before notifying, so a
// touch that rewrote identical bytes with the same mtime stays quiet.
func (w *Watcher) handleChange() {
	stat, err := os.Stat(w.path)
	if err != nil {
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}

	w.mu.Lock()
	unchanged := stat.ModTime().Equal(w.modTime) && stat.Size() == w.size
	if !unchanged {
		w.modTime = stat.ModTime()
		w.size = stat.Size()
	}
	w.mu.Unlock()
	if unchanged {
		return
	}

	if w.OnChange != nil {
		if err := w.OnChange(); err != nil && w.OnError != nil {
			w.OnError(err)
		}
	}
}
