package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogEntry is one parsed log line.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
	Raw     string
}

// ViewerConfig filters and formats log output.
type ViewerConfig struct {
	// Level shows only entries at or above this level. Empty shows all.
	Level string
	// Pattern shows only entries whose raw line matches.
	Pattern *regexp.Regexp
	// NoColor disables ANSI styling.
	NoColor bool
}

// Viewer reads, filters and formats JSON log files.
type Viewer struct {
	cfg    ViewerConfig
	out    io.Writer
	styles map[string]lipgloss.Style
}

// NewViewer creates a Viewer writing formatted entries to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	v := &Viewer{cfg: cfg, out: out}
	if !cfg.NoColor {
		v.styles = map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		}
	}
	return v
}

// Tail returns the last n entries of the log file that pass the filters.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry, ok := v.parse(scanner.Text())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Follow streams new entries appended to the log file until ctx ends.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	reader := bufio.NewReader(f)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				// Partial line stays buffered until the writer finishes it.
				break
			}
			entry, ok := v.parse(strings.TrimRight(line, "\n"))
			if !ok {
				continue
			}
			select {
			case entries <- entry:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Print formats and writes entries to the viewer's output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// FormatEntry renders one entry as a single line.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	level := entry.Level
	if style, ok := v.styles[level]; ok {
		level = style.Render(level)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", entry.Time.Format("15:04:05.000"), level, entry.Message)

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Attrs[k])
	}
	return b.String()
}

// parse decodes one JSON log line and applies the viewer's filters.
func (v *Viewer) parse(line string) (LogEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return LogEntry{}, false
	}
	if v.cfg.Pattern != nil && !v.cfg.Pattern.MatchString(line) {
		return LogEntry{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, false
	}

	entry := LogEntry{Raw: line, Attrs: make(map[string]any)}
	for k, val := range raw {
		switch k {
		case "time":
			if s, ok := val.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			entry.Level, _ = val.(string)
		case "msg":
			entry.Message, _ = val.(string)
		default:
			entry.Attrs[k] = val
		}
	}

	if v.cfg.Level != "" && LevelFromString(entry.Level) < LevelFromString(v.cfg.Level) {
		return LogEntry{}, false
	}
	return entry, true
}
