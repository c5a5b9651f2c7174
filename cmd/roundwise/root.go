package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"roundwise/internal/platform/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var envFiles []string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "roundwise",
	Short: "Facility inspection rounds with CAPA follow-up",
	Long: `roundwise serves the evaluation API used by inspectors to score
checklist items during a round, finalize it and turn non-compliant
findings into corrective and preventive action records.`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, ".env files to load before reading the environment (default .env)")
}

func loadConfig() (config.Config, error) {
	return config.Load(envFiles...)
}
