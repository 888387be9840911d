package coupling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepexcav/femadapt/field"
)

func TestProjectWithoutMappingReturnsEmpty(t *testing.T) {
	c := newTestInterface(t, false)
	out := c.FEMToPINN(map[string]field.Field{
		"u": field.Scalar([]float64{1, 2, 3}),
	}, nil)
	assert.Empty(t, out)
}

func TestProjectSkipsMismatchedAndMissingVariables(t *testing.T) {
	c := mappedInterface(t, []int{2})

	results := map[string]field.Field{
		"good":  field.Scalar(make([]float64, 8)),
		"short": field.Scalar([]float64{1, 2}),
		"bad":   {Values: []float64{1}, Components: 0},
	}
	out := c.FEMToPINN(results, []string{"good", "short", "bad", "absent"})

	require.Len(t, out, 1)
	assert.Contains(t, out, "good")
}

func TestProjectVectorField(t *testing.T) {
	c := mappedInterface(t, []int{2})

	// Constant 3-component displacement over the cube corners.
	vals := make([]float64, 8*3)
	for p := 0; p < 8; p++ {
		vals[p*3], vals[p*3+1], vals[p*3+2] = 1, 2, 3
	}
	out := c.FEMToPINN(map[string]field.Field{
		"displacement": field.Vector(vals, 3),
	}, nil)

	u, ok := out["displacement"]
	require.True(t, ok)
	assert.Equal(t, 3, u.Components)
	require.Equal(t, 8, u.Len())
	for p := 0; p < u.Len(); p++ {
		assert.InDelta(t, 1.0, u.At(p, 0), 1e-12)
		assert.InDelta(t, 2.0, u.At(p, 1), 1e-12)
		assert.InDelta(t, 3.0, u.At(p, 2), 1e-12)
	}
}

func TestProjectRecordsExchange(t *testing.T) {
	c := mappedInterface(t, []int{2})

	c.FEMToPINN(map[string]field.Field{"u": field.Scalar(make([]float64, 8))}, nil)
	c.PINNToFEM(map[string]field.Field{"u": field.Scalar(make([]float64, 8))}, nil)

	history := c.Status().History()
	require.Len(t, history, 2)
	assert.Equal(t, "fem_to_pinn", history[0].Direction)
	assert.Equal(t, "pinn_to_fem", history[1].Direction)
}
