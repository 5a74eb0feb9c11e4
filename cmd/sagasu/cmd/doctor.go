package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sagasu/internal/config"
	"sagasu/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment for problems",
		Long: `Run environment checks: folder access, index directory, disk space
and the analyzer command. Exits non-zero when a required check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runDoctor(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	results := preflight.New(cfg).RunAll(cmd.Context())

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintf(out, "%-4s %-12s %s\n", r.Status, r.Name, r.Message)
		}
	}

	if preflight.HasCriticalFailures(results) {
		return fmt.Errorf("environment check failed")
	}
	return nil
}
