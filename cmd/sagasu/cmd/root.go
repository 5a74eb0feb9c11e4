// Package cmd provides the CLI commands for sagasu.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"sagasu/internal/logging"
	"sagasu/internal/profiling"
	"sagasu/pkg/version"
)

var (
	debugMode      bool
	configDir      string
	loggingCleanup func()

	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// NewRootCmd creates the root command for the sagasu CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sagasu",
		Short: "Local full-text search for your documents",
		Long: `Sagasu indexes local folders into a full-text search index with
morphological analysis, so Japanese and mixed-language documents
search as well as English ones.

Typical flow:
  sagasu init            write a starter config
  sagasu index           build the index
  sagasu search <query>  search it
  sagasu watch           keep the index fresh as files change`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("sagasu version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&configDir, "config-dir", "C", ".", "Directory to load .sagasu.yaml from")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startup
	cmd.PersistentPostRunE = shutdown

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newOptimizeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startup(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg.Level = "debug"
	}

	if logger, cleanup, err := logging.Setup(logCfg); err != nil {
		// Logging is observability, not a reason to refuse to run.
		slog.Warn("logging_setup_failed", slog.String("error", err.Error()))
	} else {
		loggingCleanup = cleanup
		slog.SetDefault(logger)
	}

	var err error
	if profileCPU != "" {
		if cpuCleanup, err = profiler.StartCPU(profileCPU); err != nil {
			return err
		}
	}
	if profileTrace != "" {
		if traceCleanup, err = profiler.StartTrace(profileTrace); err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
				cpuCleanup = nil
			}
			return err
		}
	}
	return nil
}

func shutdown(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return err
		}
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
