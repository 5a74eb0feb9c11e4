package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		Long:  `Show document counts, per-folder breakdown and index location.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	status, err := e.manager().Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Fprintf(out, "Index:     %s\n", status.IndexPath)
	fmt.Fprintf(out, "Documents: %d\n", status.Documents)
	fmt.Fprintf(out, "Cataloged: %d\n", status.Catalogued)

	if len(status.Folders) > 0 {
		fmt.Fprintln(out, "Folders:")
		folders := make([]string, 0, len(status.Folders))
		for f := range status.Folders {
			folders = append(folders, f)
		}
		sort.Strings(folders)
		for _, f := range folders {
			fmt.Fprintf(out, "  %-40s %d\n", f, status.Folders[f])
		}
	}
	return nil
}
