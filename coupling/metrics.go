package coupling

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/deepexcav/femadapt/field"
)

// relZeroGuard excludes near-zero FEM values from relative-error
// denominators.
const relZeroGuard = 1e-10

// ErrorMetrics quantifies the discrepancy between FEM and PINN values
// of one variable.
type ErrorMetrics struct {
	MeanAbsError float64 `json:"mean_abs_error"`
	MaxAbsError  float64 `json:"max_abs_error"`
	MeanRelError float64 `json:"mean_rel_error"`
	MaxRelError  float64 `json:"max_rel_error"`
	NormRMSE     float64 `json:"norm_rmse"`
}

// CalculateErrorMetrics compares FEM and PINN data per variable.
// variables selects the comparison set; nil means every variable
// present in both. Variables with mismatched shapes are skipped and
// logged, since comparing them requires an explicit remap not
// performed here. The result replaces the prior snapshot in the
// status store and is handed to the OnErrorUpdate callback.
func (c *Interface) CalculateErrorMetrics(femData, pinnData map[string]field.Field, variables []string) map[string]ErrorMetrics {
	if variables == nil {
		for name := range femData {
			if _, ok := pinnData[name]; ok {
				variables = append(variables, name)
			}
		}
	}

	metrics := make(map[string]ErrorMetrics)
	for _, name := range variables {
		fem, okF := femData[name]
		pinn, okP := pinnData[name]
		if !okF || !okP {
			c.log.Warn("variable missing from FEM or PINN data, skipping", "variable", name)
			continue
		}
		if !fem.SameShape(pinn) {
			c.log.Warn("variable shapes differ, skipping (explicit remap required)",
				"variable", name,
				"fem_points", fem.Len(), "pinn_points", pinn.Len())
			continue
		}
		if len(fem.Values) == 0 {
			c.log.Warn("variable empty, skipping", "variable", name)
			continue
		}
		metrics[name] = compareValues(fem.Values, pinn.Values)
	}

	c.status.SetErrorMetrics(metrics)
	if cb := c.getCallbacks().OnErrorUpdate; cb != nil {
		cb(metrics)
	}
	return metrics
}

func compareValues(fem, pinn []float64) ErrorMetrics {
	absErr := make([]float64, len(fem))
	for i := range fem {
		absErr[i] = math.Abs(fem[i] - pinn[i])
	}
	m := ErrorMetrics{
		MeanAbsError: stat.Mean(absErr, nil),
		MaxAbsError:  floats.Max(absErr),
	}

	// Relative metrics only over entries with a meaningful FEM value.
	var relErr, nonzeroAbs, sqDiff []float64
	for i := range fem {
		if math.Abs(fem[i]) > relZeroGuard {
			relErr = append(relErr, math.Abs((fem[i]-pinn[i])/fem[i]))
			nonzeroAbs = append(nonzeroAbs, math.Abs(fem[i]))
			sqDiff = append(sqDiff, (fem[i]-pinn[i])*(fem[i]-pinn[i]))
		}
	}
	if len(relErr) > 0 {
		m.MeanRelError = stat.Mean(relErr, nil)
		m.MaxRelError = floats.Max(relErr)
		rmse := math.Sqrt(stat.Mean(sqDiff, nil))
		m.NormRMSE = rmse / stat.Mean(nonzeroAbs, nil)
	}
	return m
}
