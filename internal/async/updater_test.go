package async

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagasu/internal/watcher"
)

func batchOf(paths ...string) []watcher.FileEvent {
	events := make([]watcher.FileEvent, len(paths))
	for i, p := range paths {
		events[i] = watcher.FileEvent{Path: p, Operation: watcher.OpModify, Timestamp: time.Now()}
	}
	return events
}

func TestUpdaterRunsPerBatch(t *testing.T) {
	events := make(chan []watcher.FileEvent, 4)
	var calls atomic.Int32

	u := NewUpdater(events, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	u.Start(context.Background())

	events <- batchOf("/a.txt")
	events <- batchOf("/b.txt", "/c.txt")

	require.Eventually(t, func() bool {
		runs, _ := u.Runs()
		return runs == 2
	}, 2*time.Second, 10*time.Millisecond)

	u.Stop()
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, StateReady, u.Tracker().Snapshot().State)
}

func TestUpdaterRecordsFailure(t *testing.T) {
	events := make(chan []watcher.FileEvent, 1)
	u := NewUpdater(events, func(context.Context) error {
		return fmt.Errorf("index busted")
	}, nil)
	u.Start(context.Background())

	events <- batchOf("/a.txt")

	require.Eventually(t, func() bool {
		runs, _ := u.Runs()
		return runs == 1
	}, 2*time.Second, 10*time.Millisecond)

	u.Stop()
	_, err := u.Runs()
	require.Error(t, err)

	snap := u.Tracker().Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Contains(t, snap.ErrorMessage, "index busted")
}

func TestUpdaterStopsOnChannelClose(t *testing.T) {
	events := make(chan []watcher.FileEvent)
	u := NewUpdater(events, func(context.Context) error { return nil }, nil)
	u.Start(context.Background())

	close(events)
	u.Wait()
	assert.False(t, u.IsRunning())
}

func TestUpdaterStopIsIdempotent(t *testing.T) {
	events := make(chan []watcher.FileEvent)
	u := NewUpdater(events, func(context.Context) error { return nil }, nil)
	u.Start(context.Background())

	u.Stop()
	u.Stop()
}

func TestUpdaterIgnoresEmptyBatch(t *testing.T) {
	events := make(chan []watcher.FileEvent, 2)
	var calls atomic.Int32
	u := NewUpdater(events, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	u.Start(context.Background())

	events <- nil
	events <- batchOf("/a.txt")

	require.Eventually(t, func() bool {
		runs, _ := u.Runs()
		return runs == 1
	}, 2*time.Second, 10*time.Millisecond)
	u.Stop()
	assert.Equal(t, int32(1), calls.Load())
}

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, StateReady, tr.Snapshot().State)

	tr.Begin()
	tr.Update(5, 10, 1, "/docs/a.txt")
	snap := tr.Snapshot()
	assert.Equal(t, StateIndexing, snap.State)
	assert.Equal(t, 5, snap.FilesProcessed)
	assert.Equal(t, 10, snap.FilesTotal)
	assert.Equal(t, 1, snap.ErrorCount)
	assert.InDelta(t, 50.0, snap.ProgressPct, 0.01)
	assert.Equal(t, "/docs/a.txt", snap.CurrentPath)

	tr.Finish()
	snap = tr.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Empty(t, snap.CurrentPath)
}
