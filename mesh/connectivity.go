package mesh

import "fmt"

// Edge is an undirected mesh edge keyed by its sorted endpoint indices.
type Edge struct {
	A, B int
}

// MakeEdge normalizes an endpoint pair into an Edge key.
func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Connectivity holds the adjacency maps derived from a mesh: node
// neighborhoods for smoothing, edge-to-element incidence for jump
// estimation, and the boundary classification. It is built eagerly and
// is valid until the mesh topology changes.
type Connectivity struct {
	// NodeNeighbors[v] lists the nodes connected to v by an edge.
	NodeNeighbors [][]int

	// EdgeElements maps each edge to the elements incident on it.
	EdgeElements map[Edge][]int

	// ElementNeighbors[e] lists the elements sharing an edge with e.
	ElementNeighbors [][]int

	// BoundaryNode[v] is true when v lies on an edge used by exactly
	// one element.
	BoundaryNode []bool
}

// quadEdges enumerates the four edges of a quad in local order.
func quadEdges(q Quad) [4]Edge {
	return [4]Edge{
		MakeEdge(q.Nodes[0], q.Nodes[1]),
		MakeEdge(q.Nodes[1], q.Nodes[2]),
		MakeEdge(q.Nodes[2], q.Nodes[3]),
		MakeEdge(q.Nodes[3], q.Nodes[0]),
	}
}

// BuildConnectivity derives the adjacency maps for m.
func BuildConnectivity(m *Mesh) (*Connectivity, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("cannot build connectivity: %w", err)
	}

	c := &Connectivity{
		NodeNeighbors:    make([][]int, len(m.Nodes)),
		EdgeElements:     make(map[Edge][]int),
		ElementNeighbors: make([][]int, len(m.Elements)),
		BoundaryNode:     make([]bool, len(m.Nodes)),
	}

	for e, q := range m.Elements {
		for _, ed := range quadEdges(q) {
			c.EdgeElements[ed] = append(c.EdgeElements[ed], e)
		}
	}

	seen := make(map[Edge]bool, len(c.EdgeElements))
	for ed, elems := range c.EdgeElements {
		if !seen[ed] {
			c.NodeNeighbors[ed.A] = append(c.NodeNeighbors[ed.A], ed.B)
			c.NodeNeighbors[ed.B] = append(c.NodeNeighbors[ed.B], ed.A)
			seen[ed] = true
		}
		if len(elems) == 1 {
			c.BoundaryNode[ed.A] = true
			c.BoundaryNode[ed.B] = true
		}
		for i, a := range elems {
			for j, b := range elems {
				if i != j {
					c.ElementNeighbors[a] = appendUnique(c.ElementNeighbors[a], b)
				}
			}
		}
	}

	return c, nil
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
