package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressRenderer prints indexing progress. On a TTY it rewrites a
// single status line; otherwise it prints a line per step so logs stay
// readable.
type ProgressRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	tty    bool
	last   time.Time
}

// NewProgressRenderer creates a progress renderer.
func NewProgressRenderer(out io.Writer, tty bool) *ProgressRenderer {
	styles := PlainStyles()
	if tty {
		styles = DefaultStyles()
	}
	return &ProgressRenderer{out: out, styles: styles, tty: tty}
}

// Update reports one progress step. Non-TTY output is throttled so big
// runs do not flood the log.
func (p *ProgressRenderer) Update(processed, total int, currentPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty {
		fmt.Fprintf(p.out, "\r\033[K%s %d/%d  %s",
			p.styles.Success.Render("indexing"), processed, total, p.styles.Path.Render(currentPath))
		return
	}

	if time.Since(p.last) < time.Second && processed != total {
		return
	}
	p.last = time.Now()
	fmt.Fprintf(p.out, "indexing %d/%d %s\n", processed, total, currentPath)
}

// Error reports a per-file problem without interrupting progress.
func (p *ProgressRenderer) Error(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
	fmt.Fprintf(p.out, "%s %s: %v\n", p.styles.Warning.Render("warn"), path, err)
}

// Done finishes the progress display with a summary.
func (p *ProgressRenderer) Done(indexed, deleted, errors int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
	summary := fmt.Sprintf("indexed %d, removed %d, errors %d in %s",
		indexed, deleted, errors, elapsed.Round(time.Millisecond))
	fmt.Fprintln(p.out, p.styles.Success.Render(summary))
}
