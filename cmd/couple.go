package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepexcav/femadapt/coupling"
)

var (
	coupleProject   int
	coupleDataDir   string
	coupleMeshFile  string
	coupleBounds    []float64
	coupleRes       []int
	coupleFEMFile   string
	couplePINNFile  string
	coupleThreshold float64
	coupleMaxSugg   int
)

var coupleCmd = &cobra.Command{
	Use:   "couple",
	Short: "Run a FEM/PINN coupling session",
	Long: `Loads a FEM mesh and a PINN sampling box, builds the mapping
operators between them, compares FEM and PINN field files and prints
discrepancy metrics plus any refinement suggestions. The session status
is checkpointed into the exchange directory.`,
	RunE: runCouple,
}

func init() {
	coupleCmd.Flags().IntVarP(&coupleProject, "project", "p", 1, "project id")
	coupleCmd.Flags().StringVar(&coupleDataDir, "data-dir", "", "exchange directory (default data/exchange/project_N)")
	coupleCmd.Flags().StringVarP(&coupleMeshFile, "mesh", "m", "", "FEM mesh file (.vtk or .msh)")
	coupleCmd.Flags().Float64SliceVar(&coupleBounds, "bounds", []float64{0, 1, 0, 1, 0, 1},
		"PINN domain bounds: xmin,xmax,ymin,ymax,zmin,zmax")
	coupleCmd.Flags().IntSliceVar(&coupleRes, "resolution", []int{10}, "grid resolution, 1 or 3 entries")
	coupleCmd.Flags().StringVar(&coupleFEMFile, "fem-data", "", "JSON field file with FEM results")
	coupleCmd.Flags().StringVar(&couplePINNFile, "pinn-data", "", "JSON field file with PINN predictions")
	coupleCmd.Flags().Float64Var(&coupleThreshold, "threshold", 0.1, "suggestion threshold on norm_rmse / max_rel_error")
	coupleCmd.Flags().IntVar(&coupleMaxSugg, "max-suggestions", 10, "suggestion list cap")
	rootCmd.AddCommand(coupleCmd)
}

func runCouple(cmd *cobra.Command, args []string) error {
	log := newLogger()

	iface, err := coupling.New(coupleProject, coupleDataDir, coupling.DefaultConfig(), false, log)
	if err != nil {
		return err
	}
	defer iface.Close()

	if coupleMeshFile != "" {
		if !iface.LoadFEMMesh(coupleMeshFile) {
			return fmt.Errorf("failed to load FEM mesh %s", coupleMeshFile)
		}
	}

	if len(coupleBounds) != 6 {
		return fmt.Errorf("bounds needs 6 values, got %d", len(coupleBounds))
	}
	bounds := map[string][2]float64{
		"x": {coupleBounds[0], coupleBounds[1]},
		"y": {coupleBounds[2], coupleBounds[3]},
		"z": {coupleBounds[4], coupleBounds[5]},
	}
	if !iface.SetupPINNDomain(bounds, coupleRes) {
		return fmt.Errorf("failed to set up PINN domain")
	}

	if coupleMeshFile != "" {
		if iface.ComputeMappingMatrices() {
			log.Info("mapping operators ready")
		}
	}

	out := cmd.OutOrStdout()
	if coupleFEMFile != "" && couplePINNFile != "" {
		femData, err := loadResultsFile(coupleFEMFile)
		if err != nil {
			return err
		}
		pinnData, err := loadResultsFile(couplePINNFile)
		if err != nil {
			return err
		}
		metrics := iface.CalculateErrorMetrics(femData, pinnData, nil)
		blob, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(blob))

		suggestions := iface.GenerateRefinementSuggestions(metrics, coupleThreshold, coupleMaxSugg)
		for _, s := range suggestions {
			fmt.Fprintln(out, s.Message)
		}
	}

	if !iface.SaveStatus("") {
		return fmt.Errorf("failed to save coupling status")
	}
	return nil
}
