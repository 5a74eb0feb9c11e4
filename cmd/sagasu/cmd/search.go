package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sagasu/internal/search"
	"sagasu/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit     int
	fileTypes []string
	folder    string
	after     string
	before    string
	format    string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documents",
		Long: `Search the index. Quoted phrases match in order, * and ? match
filename wildcards, and everything else is AND-combined terms.

Examples:
  sagasu search 東京 観光
  sagasu search "exact phrase" --type md --type txt
  sagasu search report --folder ~/docs/2026 --after 2026-01-01
  sagasu search budget --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 uses search.max_results from the config)")
	cmd.Flags().StringSliceVarP(&opts.fileTypes, "type", "t", nil, "Filter by file extension (repeatable)")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "Filter by folder path prefix")
	cmd.Flags().StringVar(&opts.after, "after", "", "Only files modified on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.before, "before", "", "Only files modified before this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, text string, opts searchOptions) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	q := search.Query{
		Text:         text,
		FileTypes:    opts.fileTypes,
		FolderPrefix: opts.folder,
		MaxResults:   opts.limit,
	}
	if q.ModifiedAfter, err = parseDateFlag(opts.after); err != nil {
		return err
	}
	if q.ModifiedBefore, err = parseDateFlag(opts.before); err != nil {
		return err
	}

	slog.Info("search_started", slog.String("query", text), slog.Int("limit", opts.limit))
	start := time.Now()
	results, err := e.engine().Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	slog.Info("search_complete", slog.Int("results", len(results)),
		slog.Duration("elapsed", elapsed))

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	renderer := ui.NewResultRenderer(cmd.OutOrStdout(), stdoutIsTerminal())
	renderer.Render(results, elapsed)
	return nil
}

// parseDateFlag parses a YYYY-MM-DD flag value into a local-midnight time.
func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}
