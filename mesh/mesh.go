// Package mesh implements the computational mesh model shared by the
// refinement engine and the coupling interface: node and element
// storage, structured generators, file readers, connectivity maps and
// element quality metrics.
package mesh

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Quad is a four-node element. Node indices reference Mesh.Nodes in
// counter-clockwise order. Region carries the physical-group tag used
// by targeted refinement.
type Quad struct {
	Nodes  [4]int
	Region int
}

// Mesh is an unstructured quadrilateral mesh. It is owned exclusively
// by the refinement session: it grows only through the refiner and is
// never mutated concurrently.
type Mesh struct {
	Nodes    []r3.Vec
	Elements []Quad
}

// NewStructuredQuads builds an nx-by-ny structured quad mesh covering
// the rectangle [0,width] x [0,height] at z=0. All elements carry
// region tag 0.
func NewStructuredQuads(nx, ny int, width, height float64) (*Mesh, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions: nx=%d, ny=%d", nx, ny)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid extents: width=%g, height=%g", width, height)
	}

	m := &Mesh{
		Nodes:    make([]r3.Vec, 0, (nx+1)*(ny+1)),
		Elements: make([]Quad, 0, nx*ny),
	}
	dx := width / float64(nx)
	dy := height / float64(ny)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Nodes = append(m.Nodes, r3.Vec{X: float64(i) * dx, Y: float64(j) * dy})
		}
	}
	stride := nx + 1
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := j*stride + i
			m.Elements = append(m.Elements, Quad{
				Nodes: [4]int{a, a + 1, a + stride + 1, a + stride},
			})
		}
	}
	return m, nil
}

// NumNodes returns the node count.
func (m *Mesh) NumNodes() int { return len(m.Nodes) }

// NumElements returns the element count.
func (m *Mesh) NumElements() int { return len(m.Elements) }

// Validate checks that every element references valid node indices.
func (m *Mesh) Validate() error {
	n := len(m.Nodes)
	for e, el := range m.Elements {
		for _, v := range el.Nodes {
			if v < 0 || v >= n {
				return fmt.Errorf("element %d references node %d, mesh has %d nodes", e, v, n)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Nodes:    make([]r3.Vec, len(m.Nodes)),
		Elements: make([]Quad, len(m.Elements)),
	}
	copy(c.Nodes, m.Nodes)
	copy(c.Elements, m.Elements)
	return c
}

// Centroid returns the arithmetic center of element e.
func (m *Mesh) Centroid(e int) r3.Vec {
	el := m.Elements[e]
	var c r3.Vec
	for _, v := range el.Nodes {
		c = r3.Add(c, m.Nodes[v])
	}
	return r3.Scale(0.25, c)
}

// Area returns the area of element e, computed as the sum of the two
// triangles (0,1,2) and (0,2,3). Valid for planar and mildly warped
// quads.
func (m *Mesh) Area(e int) float64 {
	el := m.Elements[e]
	p := [4]r3.Vec{
		m.Nodes[el.Nodes[0]], m.Nodes[el.Nodes[1]],
		m.Nodes[el.Nodes[2]], m.Nodes[el.Nodes[3]],
	}
	t1 := r3.Cross(r3.Sub(p[1], p[0]), r3.Sub(p[2], p[0]))
	t2 := r3.Cross(r3.Sub(p[2], p[0]), r3.Sub(p[3], p[0]))
	return 0.5 * (r3.Norm(t1) + r3.Norm(t2))
}

// String returns a summary of the mesh properties.
func (m *Mesh) String() string {
	var sb strings.Builder
	sb.WriteString("=== Mesh Summary ===\n")
	sb.WriteString(fmt.Sprintf("  Number of nodes: %d\n", len(m.Nodes)))
	sb.WriteString(fmt.Sprintf("  Number of elements: %d\n", len(m.Elements)))
	regions := map[int]int{}
	for _, el := range m.Elements {
		regions[el.Region]++
	}
	sb.WriteString(fmt.Sprintf("  Regions: %d\n", len(regions)))
	if len(m.Nodes) > 0 {
		min, max := m.Nodes[0], m.Nodes[0]
		for _, v := range m.Nodes {
			if v.X < min.X {
				min.X = v.X
			}
			if v.Y < min.Y {
				min.Y = v.Y
			}
			if v.Z < min.Z {
				min.Z = v.Z
			}
			if v.X > max.X {
				max.X = v.X
			}
			if v.Y > max.Y {
				max.Y = v.Y
			}
			if v.Z > max.Z {
				max.Z = v.Z
			}
		}
		sb.WriteString(fmt.Sprintf("  Bounds: X=[%.4g, %.4g], Y=[%.4g, %.4g], Z=[%.4g, %.4g]\n",
			min.X, max.X, min.Y, max.Y, min.Z, max.Z))
	}
	return sb.String()
}
