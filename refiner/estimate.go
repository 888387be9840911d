package refiner

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/deepexcav/femadapt/field"
	"github.com/deepexcav/femadapt/mesh"
)

// ErrorMap maps element id to a scalar error, normalized to [0,1] by
// the largest value in the map. It is ephemeral and recomputed every
// cycle.
type ErrorMap map[int]float64

// Estimator is a pluggable error estimation function. When injected
// via SetEstimator it replaces the built-in criterion dispatch.
type Estimator func(m *mesh.Mesh, results map[string]field.Field) ErrorMap

// normalize scales the map in place so its maximum is 1.
func normalize(errs ErrorMap) ErrorMap {
	max := 0.0
	for _, v := range errs {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for k := range errs {
			errs[k] /= max
		}
	}
	return errs
}

// EstimateErrors computes per-element errors for the current mesh,
// dispatching on the configured criterion. Missing mesh or result data
// is recoverable: it is logged and an empty map returned.
func (r *Refiner) EstimateErrors(results map[string]field.Field) ErrorMap {
	if r.mesh == nil {
		r.log.Error("cannot estimate errors: no mesh attached")
		return ErrorMap{}
	}
	if r.estimator != nil {
		return r.estimator(r.mesh, results)
	}

	switch r.criterion {
	case EnergyError:
		return r.energyError(results)
	case GradientJump:
		return r.jumpError(results, "displacement")
	case DisplacementJump:
		return r.jumpError(results, "displacement")
	case StressJump:
		return r.jumpError(results, "stress")
	case PINNGuided:
		return r.pinnGuidedError(results)
	case Custom:
		r.log.Warn("CUSTOM criterion selected but no estimator injected, using energy error")
		return r.energyError(results)
	default:
		return r.energyError(results)
	}
}

// nodalMagnitudes reduces a nodal field to one magnitude per node.
func nodalMagnitudes(f field.Field, nNodes int) []float64 {
	if f.Len() < nNodes {
		return nil
	}
	mags := make([]float64, nNodes)
	for p := 0; p < nNodes; p++ {
		s := 0.0
		for c := 0; c < f.Components; c++ {
			v := f.At(p, c)
			s += v * v
		}
		mags[p] = math.Sqrt(s)
	}
	return mags
}

// pickField returns the named field, or any field as a fallback.
func pickField(results map[string]field.Field, name string) (field.Field, bool) {
	if f, ok := results[name]; ok {
		return f, true
	}
	for _, f := range results {
		return f, true
	}
	return field.Field{}, false
}

// energyError integrates the squared displacement-gradient magnitude
// over each element, scaled by element area. This is an elasticity
// energy-norm proxy: u_h gradients are approximated edge-wise from the
// nodal field.
func (r *Refiner) energyError(results map[string]field.Field) ErrorMap {
	f, ok := pickField(results, "displacement")
	if !ok {
		r.log.Warn("no result fields available for energy error estimation")
		return ErrorMap{}
	}
	mags := nodalMagnitudes(f, r.mesh.NumNodes())
	if mags == nil {
		r.log.Warn("result field shorter than mesh node count, skipping estimation",
			"field_points", f.Len(), "mesh_nodes", r.mesh.NumNodes())
		return ErrorMap{}
	}

	errs := make(ErrorMap, r.mesh.NumElements())
	for e, el := range r.mesh.Elements {
		g := 0.0
		for i := 0; i < 4; i++ {
			a, b := el.Nodes[i], el.Nodes[(i+1)%4]
			h := r3.Norm(r3.Sub(r.mesh.Nodes[b], r.mesh.Nodes[a]))
			if h == 0 {
				continue
			}
			if grad := math.Abs(mags[b]-mags[a]) / h; grad > g {
				g = grad
			}
		}
		errs[e] = r.mesh.Area(e) * g * g
	}
	r.log.Debug("energy error estimation complete", "elements", len(errs))
	return normalize(errs)
}

// jumpError measures the inter-element jump of the named field: for
// each element, the maximum difference of element-mean magnitude
// against its edge neighbors.
func (r *Refiner) jumpError(results map[string]field.Field, name string) ErrorMap {
	f, ok := pickField(results, name)
	if !ok {
		r.log.Warn("no result fields available for jump estimation", "field", name)
		return ErrorMap{}
	}
	mags := nodalMagnitudes(f, r.mesh.NumNodes())
	if mags == nil {
		r.log.Warn("result field shorter than mesh node count, skipping estimation",
			"field", name, "field_points", f.Len(), "mesh_nodes", r.mesh.NumNodes())
		return ErrorMap{}
	}

	conn, err := mesh.BuildConnectivity(r.mesh)
	if err != nil {
		r.log.Error("connectivity build failed", "error", err)
		return ErrorMap{}
	}

	means := make([]float64, r.mesh.NumElements())
	for e, el := range r.mesh.Elements {
		s := 0.0
		for _, v := range el.Nodes {
			s += mags[v]
		}
		means[e] = s / 4
	}

	errs := make(ErrorMap, len(means))
	for e := range r.mesh.Elements {
		jump := 0.0
		for _, n := range conn.ElementNeighbors[e] {
			if d := math.Abs(means[e] - means[n]); d > jump {
				jump = d
			}
		}
		errs[e] = jump
	}
	r.log.Debug("jump error estimation complete", "field", name, "elements", len(errs))
	return normalize(errs)
}

// pinnGuidedError integrates the externally supplied PINN error map
// with the FEM energy error according to the configured integration
// mode. Without a PINN error map it degrades to the plain FEM
// estimate.
func (r *Refiner) pinnGuidedError(results map[string]field.Field) ErrorMap {
	femErrors := r.energyError(results)
	if len(r.pinnErrors) == 0 {
		r.log.Warn("PINN error map empty, falling back to energy error")
		return femErrors
	}

	pg := r.cfg.PINNGuided
	out := make(ErrorMap, len(femErrors))

	ids := make(map[int]struct{}, len(femErrors)+len(r.pinnErrors))
	for eid := range femErrors {
		ids[eid] = struct{}{}
	}
	for eid := range r.pinnErrors {
		ids[eid] = struct{}{}
	}

	switch pg.Mode {
	case ModeOverride:
		for eid := range ids {
			if r.pinnConfidence[eid] >= pg.MinConfidence {
				out[eid] = r.pinnErrors[eid] * pg.ErrorScale
			} else {
				out[eid] = femErrors[eid]
			}
		}
	case ModeWeighted:
		for eid := range ids {
			conf := r.pinnConfidence[eid]
			w := 0.0
			if denom := math.Max(pg.MinConfidence, conf); denom > 0 {
				w = pg.Weight * (conf / denom)
			}
			out[eid] = w*r.pinnErrors[eid]*pg.ErrorScale + (1-w)*femErrors[eid]
		}
	case ModeHybrid:
		for eid := range ids {
			conf := r.pinnConfidence[eid]
			if conf >= pg.MinConfidence {
				out[eid] = math.Max(r.pinnErrors[eid]*pg.ErrorScale, femErrors[eid])
			} else {
				attenuated := r.pinnErrors[eid] * (conf / pg.MinConfidence)
				out[eid] = math.Max(attenuated*pg.ErrorScale, femErrors[eid])
			}
		}
	}

	r.log.Debug("PINN-guided error integration complete",
		"mode", pg.Mode.String(), "elements", len(out))
	return normalize(out)
}
