package mesh

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// QualityMetric identifies an element quality score. All scores are
// normalized so that 1 is a perfect square element and 0 is fully
// degenerate, including SKEWNESS (reported as 1-skew so that higher is
// always better).
type QualityMetric uint8

const (
	AspectRatio QualityMetric = iota
	Skewness
	Jacobian
	MinAngle
	Combined
)

func (q QualityMetric) String() string {
	switch q {
	case AspectRatio:
		return "ASPECT_RATIO"
	case Skewness:
		return "SKEWNESS"
	case Jacobian:
		return "JACOBIAN"
	case MinAngle:
		return "MIN_ANGLE"
	case Combined:
		return "COMBINED"
	default:
		return "UNKNOWN"
	}
}

// ParseQualityMetric maps a configuration string to a QualityMetric.
func ParseQualityMetric(s string) (QualityMetric, bool) {
	switch s {
	case "ASPECT_RATIO", "aspect_ratio":
		return AspectRatio, true
	case "SKEWNESS", "skewness":
		return Skewness, true
	case "JACOBIAN", "jacobian":
		return Jacobian, true
	case "MIN_ANGLE", "min_angle":
		return MinAngle, true
	case "COMBINED", "combined":
		return Combined, true
	}
	return Combined, false
}

// ElementQuality computes the quality scores of element e.
func (m *Mesh) ElementQuality(e int) map[QualityMetric]float64 {
	el := m.Elements[e]
	var p [4]r3.Vec
	for i, v := range el.Nodes {
		p[i] = m.Nodes[v]
	}

	// Side lengths.
	var side [4]float64
	minSide, maxSide := math.Inf(1), 0.0
	for i := 0; i < 4; i++ {
		side[i] = r3.Norm(r3.Sub(p[(i+1)%4], p[i]))
		if side[i] < minSide {
			minSide = side[i]
		}
		if side[i] > maxSide {
			maxSide = side[i]
		}
	}
	aspect := 0.0
	if maxSide > 0 {
		aspect = minSide / maxSide
	}

	// Corner angles and corner Jacobians. The corner Jacobian is the
	// 2x2 determinant of the two edge vectors leaving the corner,
	// projected onto the element plane spanned by them.
	minAngle, maxAngleDev := math.Inf(1), 0.0
	minJac, maxJac := math.Inf(1), 0.0
	for i := 0; i < 4; i++ {
		u := r3.Sub(p[(i+1)%4], p[i])
		w := r3.Sub(p[(i+3)%4], p[i])
		nu, nw := r3.Norm(u), r3.Norm(w)
		if nu == 0 || nw == 0 {
			return map[QualityMetric]float64{
				AspectRatio: 0, Skewness: 0, Jacobian: 0, MinAngle: 0, Combined: 0,
			}
		}
		cos := r3.Dot(u, w) / (nu * nw)
		cos = math.Max(-1, math.Min(1, cos))
		angle := math.Acos(cos) * 180 / math.Pi
		if angle < minAngle {
			minAngle = angle
		}
		if dev := math.Abs(angle - 90); dev > maxAngleDev {
			maxAngleDev = dev
		}

		jm := mat.NewDense(2, 2, []float64{nu, r3.Dot(w, u) / nu, 0, r3.Norm(r3.Cross(u, w)) / nu})
		jac := mat.Det(jm)
		if jac < minJac {
			minJac = jac
		}
		if jac > maxJac {
			maxJac = jac
		}
	}

	skew := math.Min(maxAngleDev/90, 1)
	jacScore := 0.0
	if maxJac > 0 {
		jacScore = math.Max(0, minJac/maxJac)
	}
	angleScore := math.Max(0, math.Min(minAngle/90, 1))

	q := map[QualityMetric]float64{
		AspectRatio: aspect,
		Skewness:    1 - skew,
		Jacobian:    jacScore,
		MinAngle:    angleScore,
	}
	q[Combined] = (q[AspectRatio] + q[Skewness] + q[Jacobian] + q[MinAngle]) / 4
	return q
}

// EvaluateQuality averages the per-element scores over the whole mesh.
// An empty mesh yields an empty map.
func (m *Mesh) EvaluateQuality() map[QualityMetric]float64 {
	if len(m.Elements) == 0 {
		return map[QualityMetric]float64{}
	}
	sum := map[QualityMetric]float64{}
	for e := range m.Elements {
		for k, v := range m.ElementQuality(e) {
			sum[k] += v
		}
	}
	n := float64(len(m.Elements))
	for k := range sum {
		sum[k] /= n
	}
	return sum
}
