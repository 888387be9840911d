package refiner

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/deepexcav/femadapt/mesh"
)

// relaxation factor for Laplacian smoothing: new = (1-w)*old + w*avg.
const smoothRelax = 0.5

// SmoothMesh runs SmoothingIterations passes of Laplacian position
// smoothing over the mesh nodes. Boundary nodes are pinned so the
// domain shape is preserved; topology is never changed.
func (r *Refiner) SmoothMesh() bool {
	if r.mesh == nil {
		r.log.Error("cannot smooth: no mesh attached")
		return false
	}
	conn, err := mesh.BuildConnectivity(r.mesh)
	if err != nil {
		r.log.Error("connectivity build failed", "error", err)
		return false
	}

	for it := 0; it < r.cfg.SmoothingIterations; it++ {
		next := make([]r3.Vec, len(r.mesh.Nodes))
		copy(next, r.mesh.Nodes)
		for v := range r.mesh.Nodes {
			if conn.BoundaryNode[v] || len(conn.NodeNeighbors[v]) == 0 {
				continue
			}
			var avg r3.Vec
			for _, n := range conn.NodeNeighbors[v] {
				avg = r3.Add(avg, r.mesh.Nodes[n])
			}
			avg = r3.Scale(1/float64(len(conn.NodeNeighbors[v])), avg)
			next[v] = r3.Add(
				r3.Scale(1-smoothRelax, r.mesh.Nodes[v]),
				r3.Scale(smoothRelax, avg))
		}
		r.mesh.Nodes = next
	}

	r.log.Info("mesh smoothing complete", "iterations", r.cfg.SmoothingIterations)
	return true
}
