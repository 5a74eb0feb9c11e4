package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string, opts Options) *Watcher {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	w := New(opts)
	require.NoError(t, w.Start(context.Background(), []string{dir}))
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

// waitFor drains batches until an event for path with the wanted op
// arrives, or fails after a few seconds.
func waitFor(t *testing.T, w *Watcher, path string, op Operation) FileEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-w.Events():
			for _, ev := range batch {
				if ev.Path == path && ev.Operation == op {
					return ev
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s on %s", op, path)
			return FileEvent{}
		}
	}
}

func TestWatcherReportsCreate(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, Options{})

	path := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	ev := waitFor(t, w, path, OpCreate)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestWatcherReportsModify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w := startWatcher(t, dir, Options{})
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	waitFor(t, w, path, OpModify)
}

func TestWatcherReportsDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	w := startWatcher(t, dir, Options{})
	require.NoError(t, os.Remove(path))

	waitFor(t, w, path, OpDelete)
}

func TestWatcherExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, Options{Extensions: []string{".txt"}})

	ignored := filepath.Join(dir, "scratch.tmp")
	wanted := filepath.Join(dir, "kept.txt")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(wanted, []byte("x"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-w.Events():
			for _, ev := range batch {
				assert.NotEqual(t, ignored, ev.Path, "filtered extension leaked through")
				if ev.Path == wanted {
					return
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for kept.txt event")
		}
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, Options{})

	subdir := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(subdir, "nested.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	waitFor(t, w, path, OpCreate)
}

func TestWatcherStartWithoutFolders(t *testing.T) {
	w := New(Options{})
	assert.Error(t, w.Start(context.Background(), nil))
}

func TestWatcherStopClosesEvents(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, Options{})
	require.NoError(t, w.Stop())

	for range w.Events() {
	}
	_, ok := <-w.Events()
	assert.False(t, ok)
}
