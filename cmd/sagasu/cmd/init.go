package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sagasu/configs"
	"sagasu/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool
	var folders []string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a .sagasu.yaml with default settings into the current
directory. Pass --folder to pre-fill the folders to index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, folders, force)
		},
	}

	cmd.Flags().StringSliceVar(&folders, "folder", nil, "Folder to index (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, folders []string, force bool) error {
	path := filepath.Join(configDir, ".sagasu.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	out := cmd.OutOrStdout()

	if force {
		backupPath, err := config.BackupConfig(path)
		if err != nil {
			return fmt.Errorf("failed to back up existing config: %w", err)
		}
		if backupPath != "" {
			fmt.Fprintf(out, "Backed up existing config to %s\n", backupPath)
		}
	}

	// Without folders, write the commented template so the user sees the
	// knobs. With folders, write a concrete config.
	if len(folders) == 0 {
		if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
		fmt.Fprintln(out, "Add folders to index under the 'folders:' key, then run 'sagasu index'.")
		return nil
	}

	cfg := config.NewConfig()
	for _, f := range folders {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("cannot resolve folder %q: %w", f, err)
		}
		cfg.Folders = append(cfg.Folders, abs)
	}
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	fmt.Fprintln(out, "Run 'sagasu index' to build the index.")
	return nil
}
