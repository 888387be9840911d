package coupling

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepexcav/femadapt/field"
)

// unitCubeCorners are the eight corners of the unit cube, used as FEM
// node coordinates in mapping tests.
var unitCubeCorners = []r3.Vec{
	{}, {X: 1}, {Y: 1}, {X: 1, Y: 1},
	{Z: 1}, {X: 1, Z: 1}, {Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1},
}

func mappedInterface(t *testing.T, res []int) *Interface {
	t.Helper()
	c := newTestInterface(t, false)
	c.Status().SetFEMMeshInfo(&FEMMeshInfo{
		Source: "test", NPoints: len(unitCubeCorners), LoadedAt: time.Now(),
	})
	c.SetFEMPoints(unitCubeCorners)
	require.True(t, c.SetupPINNDomain(map[string][2]float64{
		"x": {0, 1}, "y": {0, 1}, "z": {0, 1},
	}, res))
	require.True(t, c.ComputeMappingMatrices())
	return c
}

func TestComputeMappingMatricesDims(t *testing.T) {
	c := mappedInterface(t, []int{3})

	rows, cols := c.Mapping().FEMToPINN.Dims()
	assert.Equal(t, 27, rows)
	assert.Equal(t, 8, cols)

	rows, cols = c.Mapping().PINNToFEM.Dims()
	assert.Equal(t, 8, rows)
	assert.Equal(t, 27, cols)
}

func TestComputeMappingMatricesPrerequisites(t *testing.T) {
	c := newTestInterface(t, false)
	assert.False(t, c.ComputeMappingMatrices())

	c.Status().SetFEMMeshInfo(&FEMMeshInfo{Source: "test", NPoints: 8})
	assert.False(t, c.ComputeMappingMatrices())

	require.True(t, c.SetupPINNDomain(map[string][2]float64{
		"x": {0, 1}, "y": {0, 1}, "z": {0, 1},
	}, []int{2}))
	assert.False(t, c.ComputeMappingMatrices())

	c.SetFEMPoints(unitCubeCorners)
	assert.True(t, c.ComputeMappingMatrices())
}

func TestIDWRowsSumToOne(t *testing.T) {
	c := mappedInterface(t, []int{3})

	rows, _ := c.Mapping().FEMToPINN.Dims()
	sums := make([]float64, rows)
	c.Mapping().FEMToPINN.DoNonZero(func(i, j int, v float64) {
		assert.GreaterOrEqual(t, v, 0.0)
		sums[i] += v
	})
	for i, s := range sums {
		assert.InDelta(t, 1.0, s, 1e-12, "row %d", i)
	}
}

func TestFEMToPINNPreservesConstantField(t *testing.T) {
	c := mappedInterface(t, []int{3})

	vals := make([]float64, len(unitCubeCorners))
	for i := range vals {
		vals[i] = 7.5
	}
	out := c.FEMToPINN(map[string]field.Field{"u": field.Scalar(vals)}, nil)

	u, ok := out["u"]
	require.True(t, ok)
	require.Equal(t, 27, u.Len())
	for i := 0; i < u.Len(); i++ {
		assert.InDelta(t, 7.5, u.At(i, 0), 1e-12)
	}
}

func TestPINNToFEMTrilinearOfConstant(t *testing.T) {
	c := mappedInterface(t, []int{3})

	vals := make([]float64, 27)
	for i := range vals {
		vals[i] = -2.25
	}
	out := c.PINNToFEM(map[string]field.Field{"u": field.Scalar(vals)}, nil)

	u, ok := out["u"]
	require.True(t, ok)
	require.Equal(t, 8, u.Len())
	for i := 0; i < u.Len(); i++ {
		assert.InDelta(t, -2.25, u.At(i, 0), 1e-12)
	}
}

func TestPINNToFEMTrilinearIsExactOnLinearField(t *testing.T) {
	c := mappedInterface(t, []int{3})

	// f(x,y,z) = x + 2y + 3z sampled on the 3x3x3 grid, x fastest.
	vals := make([]float64, 0, 27)
	for iz := 0; iz < 3; iz++ {
		for iy := 0; iy < 3; iy++ {
			for ix := 0; ix < 3; ix++ {
				x, y, z := float64(ix)/2, float64(iy)/2, float64(iz)/2
				vals = append(vals, x+2*y+3*z)
			}
		}
	}
	out := c.PINNToFEM(map[string]field.Field{"f": field.Scalar(vals)}, nil)

	f := out["f"]
	require.Equal(t, 8, f.Len())
	for i, p := range unitCubeCorners {
		assert.InDelta(t, p.X+2*p.Y+3*p.Z, f.At(i, 0), 1e-12, "corner %d", i)
	}
}

func TestIDWExactHitAtCoincidingPoint(t *testing.T) {
	// With a 2x2x2 grid the grid points coincide with the cube corners,
	// so every grid row degenerates to a single unit weight.
	c := mappedInterface(t, []int{2})

	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out := c.FEMToPINN(map[string]field.Field{"u": field.Scalar(vals)}, nil)

	u := out["u"]
	require.Equal(t, 8, u.Len())
	// Grid ordering is x fastest, matching the corner ordering.
	for i := 0; i < 8; i++ {
		assert.InDelta(t, vals[i], u.At(i, 0), 1e-12)
	}
}

func TestMappingInvalidatedOnDescriptorChange(t *testing.T) {
	c := mappedInterface(t, []int{2})
	require.NotNil(t, c.Mapping())

	require.True(t, c.SetupPINNDomain(map[string][2]float64{
		"x": {0, 2}, "y": {0, 2}, "z": {0, 2},
	}, []int{4}))
	assert.Nil(t, c.Mapping())

	c.SetFEMPoints(unitCubeCorners)
	assert.Nil(t, c.Mapping())
}

func TestSetupPINNDomainValidation(t *testing.T) {
	c := newTestInterface(t, false)

	ok := c.SetupPINNDomain(map[string][2]float64{"x": {0, 1}, "y": {0, 1}}, []int{2})
	assert.False(t, ok, "missing z bounds")

	ok = c.SetupPINNDomain(map[string][2]float64{
		"x": {0, 1}, "y": {0, 1}, "z": {0, 1},
	}, []int{2, 2})
	assert.False(t, ok, "resolution must have 1 or 3 entries")

	ok = c.SetupPINNDomain(map[string][2]float64{
		"x": {0, 1}, "y": {0, 1}, "z": {0, 1},
	}, []int{0})
	assert.False(t, ok, "resolution entries must be positive")

	ok = c.SetupPINNDomain(map[string][2]float64{
		"x": {0, 1}, "y": {0, 1}, "z": {0, 1},
	}, []int{4, 3, 2})
	assert.True(t, ok)
	info := c.Status().PINNDomainInfo()
	require.NotNil(t, info)
	assert.Equal(t, 24, info.NPoints)
}
