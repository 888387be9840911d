// Package field holds discretization-agnostic field arrays exchanged
// between the FEM mesh and the PINN sampling grid.
package field

import "fmt"

// Field is a flat array of values sampled at the points of some
// discretization. Components distinguishes scalar fields (1) from
// vector fields (e.g. 3 for displacement). Values are stored
// point-major: Values[p*Components+c].
type Field struct {
	Values     []float64 `json:"values"`
	Components int       `json:"components"`
}

// Scalar wraps a slice of per-point values as a scalar field.
func Scalar(values []float64) Field {
	return Field{Values: values, Components: 1}
}

// Vector wraps a point-major slice as a vector field with the given
// number of components per point.
func Vector(values []float64, components int) Field {
	return Field{Values: values, Components: components}
}

// Len returns the number of points the field is sampled at.
func (f Field) Len() int {
	if f.Components <= 0 {
		return 0
	}
	return len(f.Values) / f.Components
}

// At returns component c of the value at point p.
func (f Field) At(p, c int) float64 {
	return f.Values[p*f.Components+c]
}

// SameShape reports whether two fields have identical point count and
// component count.
func (f Field) SameShape(g Field) bool {
	return f.Components == g.Components && len(f.Values) == len(g.Values)
}

// Validate checks internal consistency.
func (f Field) Validate() error {
	if f.Components <= 0 {
		return fmt.Errorf("field has %d components, want >= 1", f.Components)
	}
	if len(f.Values)%f.Components != 0 {
		return fmt.Errorf("field length %d is not a multiple of %d components",
			len(f.Values), f.Components)
	}
	return nil
}
