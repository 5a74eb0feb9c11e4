package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Compact the index into fewer segments",
		Long: `Merge index segments for faster queries. Useful after many
incremental updates. This can take a while on large indexes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			start := time.Now()
			if err := e.manager().Optimize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Optimized in %s.\n",
				time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	return cmd
}
