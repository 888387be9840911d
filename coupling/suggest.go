package coupling

import (
	"fmt"
	"sort"
)

// Suggestion is a ranked, thresholded refinement signal derived from
// the FEM/PINN discrepancy of one variable. Elements, RegionID and
// Level are optional localization hints consumed by the refiner's
// PINN-targeted strategy.
type Suggestion struct {
	Variable  string  `json:"variable"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`

	Elements []int `json:"elements,omitempty"`
	RegionID int   `json:"region_id,omitempty"`
	Level    int   `json:"refinement_level,omitempty"`
}

// GenerateRefinementSuggestions flags every variable whose normalized
// RMSE or maximum relative error exceeds threshold, ranks the flags by
// the triggering value descending and truncates to maxSuggestions. An
// empty list is a valid outcome. The result replaces the snapshot in
// the status store.
func (c *Interface) GenerateRefinementSuggestions(metrics map[string]ErrorMetrics, threshold float64, maxSuggestions int) []Suggestion {
	if c.status.FEMMeshInfo() == nil {
		c.log.Error("FEM mesh not loaded, cannot generate suggestions")
		return nil
	}

	var suggestions []Suggestion
	for name, m := range metrics {
		switch {
		case m.NormRMSE > threshold:
			suggestions = append(suggestions, Suggestion{
				Variable:  name,
				Metric:    "norm_rmse",
				Value:     m.NormRMSE,
				Threshold: threshold,
				Message: fmt.Sprintf("refine regions associated with %s: norm_rmse %.4f > threshold %.4f",
					name, m.NormRMSE, threshold),
			})
		case m.MaxRelError > threshold:
			suggestions = append(suggestions, Suggestion{
				Variable:  name,
				Metric:    "max_rel_error",
				Value:     m.MaxRelError,
				Threshold: threshold,
				Message: fmt.Sprintf("refine the peak-error region of %s: max_rel_error %.4f > threshold %.4f",
					name, m.MaxRelError, threshold),
			})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Value != suggestions[j].Value {
			return suggestions[i].Value > suggestions[j].Value
		}
		return suggestions[i].Variable < suggestions[j].Variable
	})
	if maxSuggestions > 0 && len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	c.status.SetSuggestions(suggestions)
	if len(suggestions) > 0 {
		c.log.Info("refinement suggestions generated", "count", len(suggestions))
	} else {
		c.log.Info("all variables within threshold, no refinement suggested",
			"threshold", threshold)
	}
	return suggestions
}
