// Package watcher observes the configured folders and reports file
// changes as debounced batches, ready for incremental indexing. Editors
// produce bursts of events per save; the debouncer coalesces them so one
// save becomes one index update.
package watcher

import "time"

// Operation is the kind of change observed for a path.
type Operation int

const (
	// OpCreate indicates a new file appeared.
	OpCreate Operation = iota
	// OpModify indicates file content changed.
	OpModify
	// OpDelete indicates the file is gone.
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change.
type FileEvent struct {
	// Path is the absolute file path.
	Path string

	// Operation is the coalesced change kind.
	Operation Operation

	// Timestamp is when the change was first observed.
	Timestamp time.Time
}

// Options configures the watcher.
type Options struct {
	// Debounce is the quiet period before a burst is emitted.
	Debounce time.Duration

	// Extensions limits events to these file extensions (lowercased,
	// with dot). Empty means all files.
	Extensions []string

	// EventBufferSize is the batch channel capacity.
	EventBufferSize int
}

// WithDefaults fills zero values.
func (o Options) WithDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = 256
	}
	return o
}
