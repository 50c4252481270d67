package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// DefaultDebounce is how long a file must stay quiet before it is decoded.
	DefaultDebounce = 250 * time.Millisecond

	resultBuffer = 64
)

// Watcher decodes files matching a pattern as they are created or
// rewritten under a directory tree.
type Watcher struct {
	dir      string
	pattern  string
	runner   *Runner
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// Debouncing: collect writes before decoding
	pendingMu sync.Mutex
	pending   map[string]time.Time

	results chan Result
}

// NewWatcher creates a watcher over dir. Pattern is matched against paths
// relative to dir.
func NewWatcher(dir, pattern string, runner *Runner, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		pattern:  pattern,
		runner:   runner,
		logger:   logger,
		watcher:  fsw,
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
		results:  make(chan Result, resultBuffer),
	}, nil
}

// SetDebounce changes the quiet period; call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Results delivers one Result per decoded file. It is closed when the
// watcher stops.
func (w *Watcher) Results() <-chan Result { return w.results }

// Start adds watches for the tree and processes events until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.dir); err != nil {
		return err
	}
	go w.processEvents(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error { return w.watcher.Close() }

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if base := d.Name(); strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.results)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))

		case now := <-ticker.C:
			w.flushPending(ctx, now)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path := event.Name
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(path); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", path), zap.Error(err))
			}
			return
		}
	}
	if !matchPath(w.dir, w.pattern, path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = time.Now()
	w.pendingMu.Unlock()
	w.logger.Debug("change detected", zap.String("file", path), zap.Stringer("op", event.Op))
}

// flushPending decodes files that have been quiet for the debounce period.
func (w *Watcher) flushPending(ctx context.Context, now time.Time) {
	w.pendingMu.Lock()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range ready {
		res := w.runner.DecodeFile(ctx, path)
		select {
		case w.results <- res:
		case <-ctx.Done():
			return
		default:
			w.logger.Warn("result dropped, channel full", zap.String("file", path))
		}
	}
}
