package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"sagasu/internal/highlight"
	"sagasu/internal/search"
)

// ResultRenderer prints search results.
type ResultRenderer struct {
	out    io.Writer
	styles Styles
}

// NewResultRenderer creates a renderer. With color false the output is
// plain text, safe to pipe.
func NewResultRenderer(out io.Writer, color bool) *ResultRenderer {
	styles := PlainStyles()
	if color {
		styles = DefaultStyles()
	}
	return &ResultRenderer{out: out, styles: styles}
}

// Render prints all results followed by a summary line.
func (r *ResultRenderer) Render(results []search.Result, elapsed time.Duration) {
	for i, res := range results {
		r.renderResult(i+1, res)
	}

	if len(results) == 0 {
		fmt.Fprintln(r.out, "No results.")
		return
	}
	fmt.Fprintln(r.out, r.styles.Meta.Render(
		fmt.Sprintf("%d results in %s", len(results), elapsed.Round(time.Millisecond))))
}

func (r *ResultRenderer) renderResult(rank int, res search.Result) {
	header := fmt.Sprintf("%d. %s", rank, r.styles.FileName.Render(res.Name))
	meta := fmt.Sprintf("%s  %s", formatSize(res.Size), res.ModTime.Format("2006-01-02"))
	fmt.Fprintf(r.out, "%s  %s\n", header, r.styles.Meta.Render(meta))
	fmt.Fprintf(r.out, "   %s\n", r.styles.Path.Render(res.Path))

	for _, frag := range res.Fragments {
		fmt.Fprintf(r.out, "   %s\n", r.renderFragment(frag))
	}
	fmt.Fprintln(r.out)
}

// renderFragment flattens a fragment to one line with matched spans
// emphasized.
func (r *ResultRenderer) renderFragment(frag highlight.Fragment) string {
	var b strings.Builder
	cursor := 0
	for _, span := range frag.Spans {
		if span.Start < cursor || span.End > len(frag.Text) {
			continue
		}
		b.WriteString(r.styles.Fragment.Render(frag.Text[cursor:span.Start]))
		b.WriteString(r.styles.Match.Render(frag.Text[span.Start:span.End]))
		cursor = span.End
	}
	b.WriteString(r.styles.Fragment.Render(frag.Text[cursor:]))

	return strings.Join(strings.Fields(b.String()), " ")
}

// formatSize renders a byte count compactly.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
