// Command mcheck is the CLI driver for the k-induction and IC3IA engines:
// `check` runs both techniques cooperatively over a bundled transition
// system until every property is resolved or a bound is hit, and `status`
// inspects a checkpoint database left behind by a prior run.
//
// # File Index
//
//   - main.go       - entry point, rootCmd, global flags, init()
//   - cmd_check.go  - checkCmd, runCheck()
//   - cmd_status.go - statusCmd, runStatus()
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose        bool
	checkpointPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mcheck",
	Short: "Unbounded symbolic model checking over bundled transition systems",
	Long: `mcheck drives a k-induction step engine and an IC3IA engine
(predicate abstraction, relative induction, interpolation-based
refinement) cooperatively against a small set of bundled fixture
transition systems, reporting each property's status as it resolves.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "sqlite checkpoint database path (disabled if empty)")

	rootCmd.AddCommand(checkCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
