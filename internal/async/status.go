// Package async runs index maintenance in the background: a progress
// tracker that can be polled from another goroutine, and an updater that
// turns watcher batches into incremental index updates.
package async

import (
	"sync"
	"time"
)

// State is the overall background indexing state.
type State string

const (
	// StateIndexing means an update is in progress.
	StateIndexing State = "indexing"
	// StateReady means the index is up to date.
	StateReady State = "ready"
	// StateError means the last update failed.
	StateError State = "error"
)

// Snapshot is an immutable view of indexing progress.
type Snapshot struct {
	State          State   `json:"state"`
	FilesTotal     int     `json:"files_total"`
	FilesProcessed int     `json:"files_processed"`
	ErrorCount     int     `json:"error_count"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	CurrentPath    string  `json:"current_path,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Tracker tracks indexing progress across goroutines. The indexing run
// writes, anyone may read.
type Tracker struct {
	mu sync.RWMutex

	state       State
	total       int
	processed   int
	errorCount  int
	currentPath string
	errMessage  string
	startTime   time.Time
}

// NewTracker creates a tracker in the ready state.
func NewTracker() *Tracker {
	return &Tracker{state: StateReady}
}

// Begin marks the start of an indexing run.
func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIndexing
	t.total = 0
	t.processed = 0
	t.errorCount = 0
	t.currentPath = ""
	t.errMessage = ""
	t.startTime = time.Now()
}

// Update records progress within a run.
func (t *Tracker) Update(processed, total, errorCount int, currentPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed = processed
	t.total = total
	t.errorCount = errorCount
	t.currentPath = currentPath
}

// Finish marks the run complete.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateReady
	t.currentPath = ""
}

// Fail marks the run failed.
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateError
	t.errMessage = message
	t.currentPath = ""
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pct := 0.0
	if t.total > 0 {
		pct = float64(t.processed) / float64(t.total) * 100
	}
	elapsed := 0
	if !t.startTime.IsZero() {
		elapsed = int(time.Since(t.startTime).Seconds())
	}

	return Snapshot{
		State:          t.state,
		FilesTotal:     t.total,
		FilesProcessed: t.processed,
		ErrorCount:     t.errorCount,
		ProgressPct:    pct,
		ElapsedSeconds: elapsed,
		CurrentPath:    t.currentPath,
		ErrorMessage:   t.errMessage,
	}
}
