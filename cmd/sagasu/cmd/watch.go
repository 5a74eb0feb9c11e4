package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sagasu/internal/async"
	"sagasu/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var initial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch folders and keep the index current",
		Long: `Watch the configured folders for changes and fold them into the
index as they settle. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, initial)
		},
	}

	cmd.Flags().BoolVar(&initial, "update-first", true, "Run an incremental update before watching")

	return cmd
}

func runWatch(cmd *cobra.Command, initial bool) error {
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
	out := cmd.OutOrStdout()

	// Catch up on changes made while nothing was watching.
	if initial {
		fmt.Fprintln(out, "Updating index before watching...")
		if _, err := mgr.UpdateIncremental(ctx, nil); err != nil {
			return err
		}
	}

	w := watcher.New(watcher.Options{
		Debounce:   e.cfg.WatchDebounce(),
		Extensions: e.cfg.Indexing.Extensions,
	})
	if err := w.Start(ctx, e.cfg.Folders); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	updater := async.NewUpdater(w.Events(), func(ctx context.Context) error {
		_, err := mgr.UpdateIncremental(ctx, nil)
		return err
	}, nil)
	updater.Start(ctx)
	defer updater.Stop()

	fmt.Fprintf(out, "Watching %d folder(s). Press Ctrl-C to stop.\n", len(e.cfg.Folders))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-w.Errors():
				if !ok {
					return nil
				}
				slog.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	updater.Stop()
	runs, lastErr := updater.Runs()
	fmt.Fprintf(out, "Stopped after %d update run(s).\n", runs)
	if lastErr != nil {
		fmt.Fprintf(out, "Last update error: %v\n", lastErr)
	}
	return nil
}
