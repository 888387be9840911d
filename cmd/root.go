// Package cmd implements the femadapt command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepexcav/femadapt/logging"
)

var version = "0.1.0"

var (
	flagVerbose bool
	flagJSONLog bool
	flagLogDir  string
)

var rootCmd = &cobra.Command{
	Use:   "femadapt",
	Short: "Adaptive FEM mesh refinement with PINN coupling",
	Long: `femadapt runs adaptive mesh refinement sessions for geotechnical
FEM simulations and manages the bidirectional data exchange between the
FEM mesh and a PINN surrogate's sampling grid.

Use "femadapt refine --help" for refinement options and
"femadapt couple --help" for coupling options.`,
	Version: version,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "log-json", false, "log in JSON format")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "also write JSON logs into this directory")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return logging.New(logging.Config{
		Level:   level,
		JSON:    flagJSONLog,
		Service: "femadapt",
		LogDir:  flagLogDir,
	})
}
