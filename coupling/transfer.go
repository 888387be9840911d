package coupling

import (
	"time"

	"github.com/deepexcav/femadapt/field"
)

// FEMToPINN projects FEM result fields onto the PINN grid. variables
// selects which fields to project; nil means all. A variable absent
// from the input, or with the wrong point count, is skipped with a
// warning. Requires the mapping operators; without them an empty map
// is returned (logged).
func (c *Interface) FEMToPINN(femResults map[string]field.Field, variables []string) map[string]field.Field {
	return c.project(femResults, variables, "fem_to_pinn")
}

// PINNToFEM projects PINN prediction fields back onto the FEM mesh
// points. Semantics mirror FEMToPINN.
func (c *Interface) PINNToFEM(pinnResults map[string]field.Field, variables []string) map[string]field.Field {
	return c.project(pinnResults, variables, "pinn_to_fem")
}

func (c *Interface) project(results map[string]field.Field, variables []string, direction string) map[string]field.Field {
	if c.mapping == nil {
		c.log.Error("mapping matrices not computed, cannot project", "direction", direction)
		return map[string]field.Field{}
	}
	op := c.mapping.FEMToPINN
	if direction == "pinn_to_fem" {
		op = c.mapping.PINNToFEM
	}
	_, cols := op.Dims()

	if variables == nil {
		variables = make([]string, 0, len(results))
		for name := range results {
			variables = append(variables, name)
		}
	}

	out := make(map[string]field.Field, len(variables))
	for _, name := range variables {
		f, ok := results[name]
		if !ok {
			c.log.Warn("variable absent from input, skipping",
				"variable", name, "direction", direction)
			continue
		}
		if err := f.Validate(); err != nil {
			c.log.Warn("invalid field, skipping", "variable", name, "error", err)
			continue
		}
		if f.Len() != cols {
			c.log.Warn("field point count does not match source discretization, skipping",
				"variable", name, "points", f.Len(), "expected", cols)
			continue
		}
		out[name] = applyOperator(op, f)
		c.log.Debug("variable projected",
			"variable", name, "direction", direction,
			"points", out[name].Len(), "components", f.Components)
	}

	c.status.RecordExchange(ExchangeRecord{
		Time:      time.Now(),
		Direction: direction,
		Variables: variables,
	})
	return out
}
