package browse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dannyboland/loql/internal/objstore"
	"github.com/fsnotify/fsnotify"
)

// debounce collapses bursts of events, e.g. a file being written in chunks.
const debounce = 100 * time.Millisecond

// Watcher reports changes to one local directory at a time.
type Watcher struct {
	w      *fsnotify.Watcher
	logger *slog.Logger
	out    chan string

	mu  sync.Mutex
	dir string
}

// NewWatcher starts a watcher. Changes are delivered on C until ctx is done
// or Close is called.
func NewWatcher(ctx context.Context, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{w: fw, logger: logger, out: make(chan string, 1)}
	go w.loop(ctx)
	return w, nil
}

// C yields the watched directory each time its contents change.
func (w *Watcher) C() <-chan string {
	return w.out
}

// Watch switches the watcher to dir. Remote directories are not watched.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dir == dir {
		return nil
	}
	if w.dir != "" {
		_ = w.w.Remove(w.dir)
		w.dir = ""
	}
	if objstore.IsRemote(dir) {
		return nil
	}
	if err := w.w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dir = dir
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.w.Close()
}

func (w *Watcher) current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				dir := w.current()
				if dir == "" {
					return
				}
				w.logger.Debug("directory changed", "dir", dir)
				select {
				case w.out <- dir:
				default:
				}
			})
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
