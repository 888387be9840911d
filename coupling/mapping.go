package coupling

import (
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/deepexcav/femadapt/field"
)

// idwNeighbors is the number of FEM nodes blended per grid point in
// the FEM->PINN operator.
const idwNeighbors = 4

// Mapping holds the two sparse projection operators between the
// discretizations. FEMToPINN is (grid points x mesh points), PINNToFEM
// is (mesh points x grid points). Both are invalidated whenever either
// domain descriptor changes.
type Mapping struct {
	FEMToPINN *sparse.CSR
	PINNToFEM *sparse.CSR
}

// gridAxes expands the PINN domain descriptor into per-axis sample
// coordinates.
func gridAxes(info *PINNDomainInfo) (xs, ys, zs []float64) {
	return linspace(info.Bounds["x"], info.Resolution[0]),
		linspace(info.Bounds["y"], info.Resolution[1]),
		linspace(info.Bounds["z"], info.Resolution[2])
}

func linspace(b [2]float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = b[0]
		return out
	}
	step := (b[1] - b[0]) / float64(n-1)
	for i := range out {
		out[i] = b[0] + float64(i)*step
	}
	return out
}

// gridPoints materializes the regular grid, x fastest: the point index
// is ix + nx*(iy + ny*iz).
func gridPoints(info *PINNDomainInfo) []r3.Vec {
	xs, ys, zs := gridAxes(info)
	pts := make([]r3.Vec, 0, len(xs)*len(ys)*len(zs))
	for _, z := range zs {
		for _, y := range ys {
			for _, x := range xs {
				pts = append(pts, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}

// ComputeMappingMatrices builds the two sparse operators from the
// current descriptor pair. It requires both descriptors and the FEM
// point coordinates; missing prerequisites are logged and reported as
// false.
func (c *Interface) ComputeMappingMatrices() bool {
	femInfo := c.status.FEMMeshInfo()
	pinnInfo := c.status.PINNDomainInfo()
	if femInfo == nil {
		c.log.Error("cannot compute mappings: FEM mesh not loaded")
		return false
	}
	if pinnInfo == nil {
		c.log.Error("cannot compute mappings: PINN domain not configured")
		return false
	}
	if len(c.femPoints) == 0 {
		c.log.Error("cannot compute mappings: FEM point coordinates unavailable")
		return false
	}
	if len(c.femPoints) != femInfo.NPoints {
		c.log.Warn("FEM point count differs from descriptor, using coordinates",
			"descriptor", femInfo.NPoints, "coordinates", len(c.femPoints))
	}

	grid := gridPoints(pinnInfo)

	c.mapping = &Mapping{
		FEMToPINN: buildIDWOperator(grid, c.femPoints),
		PINNToFEM: buildTrilinearOperator(c.femPoints, pinnInfo),
	}
	c.log.Info("mapping matrices computed",
		"fem_points", len(c.femPoints), "pinn_points", len(grid))
	return true
}

// Mapping returns the current operators, nil until computed.
func (c *Interface) Mapping() *Mapping { return c.mapping }

// buildIDWOperator builds an inverse-distance-weighted interpolation
// operator from source points onto destination points. Each row blends
// the idwNeighbors nearest sources; weights sum to one, so constant
// fields are preserved exactly.
func buildIDWOperator(dst, src []r3.Vec) *sparse.CSR {
	dok := sparse.NewDOK(len(dst), len(src))
	var nearIdx [idwNeighbors]int
	var nearDist [idwNeighbors]float64

	for i, p := range dst {
		k := idwNeighbors
		if k > len(src) {
			k = len(src)
		}
		for n := 0; n < k; n++ {
			nearDist[n] = math.Inf(1)
			nearIdx[n] = -1
		}
		for j, q := range src {
			d := r3.Norm(r3.Sub(p, q))
			// Insertion into the small sorted neighbor list.
			for n := 0; n < k; n++ {
				if d < nearDist[n] {
					for m := k - 1; m > n; m-- {
						nearDist[m] = nearDist[m-1]
						nearIdx[m] = nearIdx[m-1]
					}
					nearDist[n] = d
					nearIdx[n] = j
					break
				}
			}
		}

		if nearDist[0] < 1e-12 {
			dok.Set(i, nearIdx[0], 1.0)
			continue
		}
		sum := 0.0
		for n := 0; n < k; n++ {
			sum += 1 / (nearDist[n] * nearDist[n])
		}
		for n := 0; n < k; n++ {
			dok.Set(i, nearIdx[n], 1/(nearDist[n]*nearDist[n])/sum)
		}
	}
	return dok.ToCSR()
}

// buildTrilinearOperator builds the grid->mesh operator: each mesh
// point is interpolated trilinearly from the corners of the enclosing
// grid cell, clamped to the domain box.
func buildTrilinearOperator(dst []r3.Vec, info *PINNDomainInfo) *sparse.CSR {
	xs, ys, zs := gridAxes(info)
	nx, ny, nz := len(xs), len(ys), len(zs)
	dok := sparse.NewDOK(len(dst), nx*ny*nz)

	for i, p := range dst {
		ix, tx := locate(xs, p.X)
		iy, ty := locate(ys, p.Y)
		iz, tz := locate(zs, p.Z)

		for dz := 0; dz < 2; dz++ {
			wz := cornerWeight(tz, dz, nz)
			if wz == 0 {
				continue
			}
			for dy := 0; dy < 2; dy++ {
				wy := cornerWeight(ty, dy, ny)
				if wy == 0 {
					continue
				}
				for dx := 0; dx < 2; dx++ {
					wx := cornerWeight(tx, dx, nx)
					if wx == 0 {
						continue
					}
					col := clampIdx(ix+dx, nx) + nx*(clampIdx(iy+dy, ny)+ny*clampIdx(iz+dz, nz))
					dok.Set(i, col, dok.At(i, col)+wx*wy*wz)
				}
			}
		}
	}
	return dok.ToCSR()
}

// locate finds the cell index and the local coordinate t in [0,1] of
// value v along the sorted axis, clamping outside the range.
func locate(axis []float64, v float64) (int, float64) {
	n := len(axis)
	if n == 1 {
		return 0, 0
	}
	if v <= axis[0] {
		return 0, 0
	}
	if v >= axis[n-1] {
		return n - 2, 1
	}
	for i := 0; i < n-1; i++ {
		if v < axis[i+1] {
			return i, (v - axis[i]) / (axis[i+1] - axis[i])
		}
	}
	return n - 2, 1
}

// cornerWeight is the 1D linear weight of corner d (0 or 1) at local
// coordinate t. Degenerate single-sample axes put all weight on
// corner 0.
func cornerWeight(t float64, d, n int) float64 {
	if n == 1 {
		if d == 0 {
			return 1
		}
		return 0
	}
	if d == 0 {
		return 1 - t
	}
	return t
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// applyOperator multiplies a CSR operator into each component of a
// field, producing a field of the same rank on the destination
// discretization.
func applyOperator(op *sparse.CSR, f field.Field) field.Field {
	rows, _ := op.Dims()
	out := field.Field{
		Values:     make([]float64, rows*f.Components),
		Components: f.Components,
	}
	op.DoNonZero(func(i, j int, v float64) {
		for comp := 0; comp < f.Components; comp++ {
			out.Values[i*f.Components+comp] += v * f.Values[j*f.Components+comp]
		}
	})
	return out
}
