package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	statusProject int
	statusDataDir string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a coupling session's status checkpoint",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusProject, "project", "p", 1, "project id")
	statusCmd.Flags().StringVar(&statusDataDir, "data-dir", "", "exchange directory (default data/exchange/project_N)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := statusDataDir
	if dir == "" {
		dir = filepath.Join("data", "exchange", fmt.Sprintf("project_%d", statusProject))
	}
	path := filepath.Join(dir, "coupling_status.json")

	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("no status checkpoint at %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(blob))
	return nil
}
