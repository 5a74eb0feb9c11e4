package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sagasu/internal/watcher"
)

// UpdateFunc runs one incremental index update.
type UpdateFunc func(ctx context.Context) error

// Updater consumes debounced watcher batches and runs an incremental
// update per batch. Updates run one at a time; batches arriving during a
// run collapse into the next one, since the update rescans anyway.
type Updater struct {
	events  <-chan []watcher.FileEvent
	update  UpdateFunc
	tracker *Tracker

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu      sync.Mutex
	running bool
	runs    int
	lastErr error
	lastRun time.Time
}

// NewUpdater creates an updater over a watcher's event channel.
func NewUpdater(events <-chan []watcher.FileEvent, update UpdateFunc, tracker *Tracker) *Updater {
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Updater{
		events:  events,
		update:  update,
		tracker: tracker,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Tracker returns the progress tracker shared with callers.
func (u *Updater) Tracker() *Tracker {
	return u.tracker
}

// Start launches the update loop. Non-blocking; use Wait or Stop.
func (u *Updater) Start(ctx context.Context) {
	u.mu.Lock()
	if u.running {
		u.mu.Unlock()
		return
	}
	u.running = true
	u.mu.Unlock()

	go u.run(ctx)
}

func (u *Updater) run(ctx context.Context) {
	defer close(u.doneCh)
	defer func() {
		u.mu.Lock()
		u.running = false
		u.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-u.stopCh:
			return
		case batch, ok := <-u.events:
			if !ok {
				return
			}
			u.handleBatch(ctx, batch)
		}
	}
}

func (u *Updater) handleBatch(ctx context.Context, batch []watcher.FileEvent) {
	if len(batch) == 0 {
		return
	}
	slog.Info("update_triggered", slog.Int("changes", len(batch)))

	u.tracker.Begin()
	err := u.update(ctx)

	u.mu.Lock()
	u.runs++
	u.lastErr = err
	u.lastRun = time.Now()
	u.mu.Unlock()

	if err != nil {
		u.tracker.Fail(err.Error())
		slog.Error("update_failed", slog.String("error", err.Error()))
		return
	}
	u.tracker.Finish()
}

// Stop ends the loop and waits for a running update to finish.
// Safe to call more than once.
func (u *Updater) Stop() {
	u.stopOnce.Do(func() { close(u.stopCh) })
	<-u.doneCh
}

// Wait blocks until the loop exits.
func (u *Updater) Wait() {
	<-u.doneCh
}

// Runs returns how many updates have completed and the last error.
func (u *Updater) Runs() (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.runs, u.lastErr
}

// IsRunning reports whether the loop is active.
func (u *Updater) IsRunning() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.running
}
