package refiner

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/deepexcav/femadapt/mesh"
)

// Record captures one refinement pass. The history is append-only and
// persisted on demand.
type Record struct {
	Iteration       int       `json:"iteration"`
	Strategy        string    `json:"strategy"`
	Criterion       string    `json:"criterion"`
	ElementsRefined int       `json:"elements_to_refine"`
	OldElements     int       `json:"old_elements"`
	OldNodes        int       `json:"old_nodes"`
	NewElements     int       `json:"new_elements"`
	NewNodes        int       `json:"new_nodes"`
	ElementIncrease int       `json:"element_increase"`
	NodeIncrease    int       `json:"node_increase"`
	Timestamp       time.Time `json:"timestamp"`
}

// RefineMesh subdivides each selected quad into four children, adding
// the four edge midpoints and the center node. Each refined element
// contributes exactly five new nodes; conforming closure of hanging
// nodes is left to the solver layer. When the projected element count
// would exceed MaxElements the selection is halved, keeping the front
// of the list (callers pass ids ordered by descending error).
func (r *Refiner) RefineMesh(ids []int) bool {
	if r.mesh == nil {
		r.log.Error("cannot refine: no mesh attached")
		return false
	}
	if len(ids) == 0 {
		r.log.Warn("no elements to refine")
		return true
	}

	oldElements := r.mesh.NumElements()
	oldNodes := r.mesh.NumNodes()

	// Each refined quad nets 3 extra elements.
	if projected := oldElements + len(ids)*3; projected > r.cfg.MaxElements {
		keep := len(ids) / 2
		r.log.Warn("element budget reached, shrinking refinement set",
			"max_elements", r.cfg.MaxElements,
			"requested", len(ids), "kept", keep)
		ids = ids[:keep]
		if len(ids) == 0 {
			return true
		}
	}

	refine := make(map[int]bool, len(ids))
	for _, eid := range ids {
		if eid < 0 || eid >= oldElements {
			r.log.Warn("skipping invalid element id", "element", eid)
			continue
		}
		refine[eid] = true
	}

	elements := make([]mesh.Quad, 0, oldElements+3*len(refine))
	for e, el := range r.mesh.Elements {
		if !refine[e] {
			elements = append(elements, el)
			continue
		}

		p := [4]r3.Vec{
			r.mesh.Nodes[el.Nodes[0]], r.mesh.Nodes[el.Nodes[1]],
			r.mesh.Nodes[el.Nodes[2]], r.mesh.Nodes[el.Nodes[3]],
		}
		base := len(r.mesh.Nodes)
		mids := [4]int{base, base + 1, base + 2, base + 3}
		center := base + 4
		for i := 0; i < 4; i++ {
			r.mesh.Nodes = append(r.mesh.Nodes,
				r3.Scale(0.5, r3.Add(p[i], p[(i+1)%4])))
		}
		r.mesh.Nodes = append(r.mesh.Nodes,
			r3.Scale(0.25, r3.Add(r3.Add(p[0], p[1]), r3.Add(p[2], p[3]))))

		elements = append(elements,
			mesh.Quad{Nodes: [4]int{el.Nodes[0], mids[0], center, mids[3]}, Region: el.Region},
			mesh.Quad{Nodes: [4]int{mids[0], el.Nodes[1], mids[1], center}, Region: el.Region},
			mesh.Quad{Nodes: [4]int{center, mids[1], el.Nodes[2], mids[2]}, Region: el.Region},
			mesh.Quad{Nodes: [4]int{mids[3], center, mids[2], el.Nodes[3]}, Region: el.Region},
		)
	}
	r.mesh.Elements = elements

	rec := Record{
		Iteration:       r.iteration,
		Strategy:        r.strategy.String(),
		Criterion:       r.criterion.String(),
		ElementsRefined: len(refine),
		OldElements:     oldElements,
		OldNodes:        oldNodes,
		NewElements:     r.mesh.NumElements(),
		NewNodes:        r.mesh.NumNodes(),
		Timestamp:       time.Now(),
	}
	rec.ElementIncrease = rec.NewElements - rec.OldElements
	rec.NodeIncrease = rec.NewNodes - rec.OldNodes
	r.history = append(r.history, rec)
	r.iteration++

	r.log.Info("mesh refinement complete",
		"refined", len(refine),
		"elements", rec.NewElements, "nodes", rec.NewNodes)
	return true
}
