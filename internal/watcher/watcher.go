package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sagasu/internal/scanner"
)

// Watcher watches folders recursively via fsnotify and emits debounced
// event batches. fsnotify does not watch recursively by itself, so every
// subdirectory gets its own watch, including ones created while running.
type Watcher struct {
	opts       Options
	extensions map[string]bool

	fs        *fsnotify.Watcher
	debouncer *Debouncer
	events    chan []FileEvent
	errors    chan error

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher. Call Start to begin watching.
func New(opts Options) *Watcher {
	opts = opts.WithDefaults()

	extensions := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	return &Watcher{
		opts:       opts,
		extensions: extensions,
		debouncer:  NewDebouncer(opts.Debounce),
		events:     make(chan []FileEvent, opts.EventBufferSize),
		errors:     make(chan error, 16),
		stopCh:     make(chan struct{}),
	}
}

// Start begins watching the given folders. It returns once watches are
// established; events flow until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context, folders []string) error {
	if len(folders) == 0 {
		return fmt.Errorf("no folders to watch")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.fs = fs

	for _, folder := range folders {
		if err := w.addRecursive(folder); err != nil {
			_ = fs.Close()
			return err
		}
	}

	w.wg.Add(1)
	go w.run(ctx)

	slog.Info("watcher_started",
		slog.Int("folders", len(folders)),
		slog.Duration("debounce", w.opts.Debounce))
	return nil
}

// Events returns the channel of debounced event batches. It closes when
// the watcher stops.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watcher errors. The watcher keeps running
// after reporting one.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops watching and closes the event channels. Safe to call more
// than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		_ = w.fs.Close()
		w.debouncer.Stop()
		close(w.events)
		close(w.errors)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.reportError(err)

		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			select {
			case w.events <- batch:
			default:
				slog.Warn("watcher_events_full", slog.Int("batch_size", len(batch)))
			}
		}
	}
}

// handle converts one fsnotify event, watching new directories and
// filtering files by extension.
func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !scanner.IsDefaultExcluded(filepath.Base(path)) {
				if err := w.addRecursive(path); err != nil {
					w.reportError(err)
				}
			}
			return
		}
	}

	if !w.wantsFile(path) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		// A rename looks like a delete here; the new name arrives as its
		// own create event.
		op = OpDelete
	default:
		// Chmod and friends do not affect index content.
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

// wantsFile applies the extension allow-list.
func (w *Watcher) wantsFile(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// addRecursive watches root and every directory below it, skipping the
// always-excluded directory names.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish mid-walk; keep going.
			slog.Debug("watch_walk_error", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && scanner.IsDefaultExcluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) reportError(err error) {
	select {
	case w.errors <- err:
	default:
		slog.Warn("watcher_errors_full", slog.String("error", err.Error()))
	}
}
