package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sagasu/internal/index"
	"sagasu/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index from scratch",
		Long: `Rebuild the search index by scanning every configured folder.

Existing index contents are discarded first. For a cheaper refresh that
only touches changed files, use 'sagasu update'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexing(cmd, quiet, false)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the index with changed files",
		Long: `Compare configured folders against the catalog and index only the
files that were added, modified or removed since the last run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexing(cmd, quiet, true)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

// runIndexing drives a full rebuild or an incremental update with
// progress on stdout. Interrupts cancel cleanly; batches already
// committed stay in the index.
func runIndexing(cmd *cobra.Command, quiet, incremental bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.requireFolders(); err != nil {
		return err
	}

	mgr := e.manager()

	var progress index.ProgressFunc
	var renderer *ui.ProgressRenderer
	if !quiet {
		renderer = newProgressRenderer(cmd)
		progress = func(p index.Progress) {
			if p.CurrentPath == "" {
				return
			}
			renderer.Update(p.Processed, p.Total, p.CurrentPath)
		}
	}

	start := time.Now()
	var stats *index.Stats
	if incremental {
		stats, err = mgr.UpdateIncremental(ctx, progress)
	} else {
		stats, err = mgr.RebuildAll(ctx, progress)
	}
	if err != nil {
		if errors.Is(err, index.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "\nInterrupted. Committed batches were kept.")
			return nil
		}
		slog.Error("indexing_failed", slog.String("error", err.Error()))
		return err
	}

	if renderer != nil {
		renderer.Done(stats.Indexed, stats.Deleted, stats.Errors, time.Since(start))
	}
	return nil
}

// newProgressRenderer builds a renderer matched to where output goes.
func newProgressRenderer(cmd *cobra.Command) *ui.ProgressRenderer {
	return ui.NewProgressRenderer(cmd.OutOrStdout(), stdoutIsTerminal())
}
