package refiner

import (
	"log/slog"

	"github.com/deepexcav/femadapt/coupling"
	"github.com/deepexcav/femadapt/field"
	"github.com/deepexcav/femadapt/mesh"
)

// Phase names the stage a refinement run is in. Each cycle walks
// ESTIMATING through EVALUATING; DONE is reached when the iteration
// budget is spent or a cycle selects zero elements.
type Phase uint8

const (
	PhasePending Phase = iota
	PhaseEstimating
	PhaseSelecting
	PhaseRefining
	PhaseSmoothing
	PhaseEvaluating
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "PENDING"
	case PhaseEstimating:
		return "ESTIMATING"
	case PhaseSelecting:
		return "SELECTING"
	case PhaseRefining:
		return "REFINING"
	case PhaseSmoothing:
		return "SMOOTHING"
	case PhaseEvaluating:
		return "EVALUATING"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// ProgressEvent is the telemetry handed to the transport layer: the
// iteration index, the phase just entered, and the fraction of the
// iteration budget consumed.
type ProgressEvent struct {
	Iteration int
	Phase     Phase
	Fraction  float64
}

// ProgressFunc receives progress events. It runs synchronously on the
// refinement goroutine and must return quickly.
type ProgressFunc func(ProgressEvent)

// ErrorCallback re-solves on the refined mesh and returns fresh
// results for the next cycle. It is the only blocking point of a run
// and is controlled entirely by the caller.
type ErrorCallback func(m *mesh.Mesh, iteration int) map[string]field.Field

// Refiner owns the mesh and runs the estimate-select-refine-smooth-
// evaluate loop. It is single-threaded: each cycle blocks until all
// five phases complete.
type Refiner struct {
	cfg Config
	log *slog.Logger

	mesh          *mesh.Mesh
	estimator     Estimator
	criterion     Criterion
	strategy      Strategy
	qualityMetric mesh.QualityMetric

	pinnErrors     ErrorMap
	pinnConfidence ErrorMap
	suggestions    []coupling.Suggestion

	history   []Record
	iteration int
	phase     Phase
	progress  ProgressFunc
}

// New creates a refiner with the given configuration. A nil logger
// falls back to slog.Default.
func New(cfg Config, log *slog.Logger) *Refiner {
	if log == nil {
		log = slog.Default()
	}
	r := &Refiner{
		cfg:           cfg,
		log:           log.With("component", "refiner"),
		criterion:     EnergyError,
		strategy:      Adaptive,
		qualityMetric: mesh.Combined,
		phase:         PhasePending,
	}
	r.log.Info("refiner initialized",
		"pinn_guided", cfg.PINNGuided.Enabled,
		"max_iterations", cfg.MaxIterations)
	return r
}

// Config returns a copy of the active configuration.
func (r *Refiner) Config() Config { return r.cfg }

// Mesh returns the attached mesh, nil before SetMesh.
func (r *Refiner) Mesh() *mesh.Mesh { return r.mesh }

// Phase returns the current phase.
func (r *Refiner) Phase() Phase { return r.phase }

// Iteration returns the number of completed refinement passes.
func (r *Refiner) Iteration() int { return r.iteration }

// History returns the refinement records accumulated so far.
func (r *Refiner) History() []Record { return r.history }

// SetMesh attaches the mesh the session refines. It must precede all
// other calls.
func (r *Refiner) SetMesh(m *mesh.Mesh) {
	r.mesh = m
	r.log.Info("mesh attached", "elements", m.NumElements(), "nodes", m.NumNodes())
}

// SetEstimator injects a custom error estimator, replacing the
// criterion dispatch.
func (r *Refiner) SetEstimator(e Estimator) {
	r.estimator = e
	r.log.Info("custom error estimator injected")
}

// SetCriterion selects the error estimation criterion.
func (r *Refiner) SetCriterion(c Criterion) {
	r.criterion = c
	r.log.Info("refinement criterion set", "criterion", c.String())
}

// SetStrategy selects the element selection strategy.
func (r *Refiner) SetStrategy(s Strategy) {
	r.strategy = s
	r.log.Info("refinement strategy set", "strategy", s.String())
}

// SetQualityMetric selects the metric checked against the quality
// threshold after each cycle.
func (r *Refiner) SetQualityMetric(q mesh.QualityMetric) {
	r.qualityMetric = q
	r.log.Info("quality metric set", "metric", q.String())
}

// SetProgressFunc registers the telemetry sink.
func (r *Refiner) SetProgressFunc(f ProgressFunc) { r.progress = f }

// AddTargetedRegion appends a region to the targeted refinement list.
func (r *Refiner) AddTargetedRegion(id, level int) {
	r.cfg.TargetedRegions = append(r.cfg.TargetedRegions,
		TargetedRegion{ID: id, Level: level})
	r.log.Info("targeted region added", "region", id, "level", level)
}

// UpdatePINNErrorMap replaces the externally supplied PINN error and
// confidence maps. A nil confidence map means full confidence
// everywhere.
func (r *Refiner) UpdatePINNErrorMap(errors, confidence ErrorMap) {
	r.pinnErrors = errors
	if confidence != nil {
		r.pinnConfidence = confidence
	} else {
		r.pinnConfidence = make(ErrorMap, len(errors))
		for eid := range errors {
			r.pinnConfidence[eid] = 1.0
		}
	}
	r.log.Info("PINN error map updated", "elements", len(errors))
}

// UpdateSuggestions replaces the refinement suggestions consumed by
// the PINN_TARGETED strategy. Suggestions carrying region information
// rewrite the targeted-region list. The slice is copied; the caller's
// value is never referenced afterwards.
func (r *Refiner) UpdateSuggestions(suggestions []coupling.Suggestion) {
	r.suggestions = make([]coupling.Suggestion, len(suggestions))
	copy(r.suggestions, suggestions)

	var regions []TargetedRegion
	for _, s := range suggestions {
		if s.RegionID != 0 || s.Level != 0 {
			regions = append(regions, TargetedRegion{ID: s.RegionID, Level: s.Level})
		}
	}
	if len(regions) > 0 {
		r.cfg.TargetedRegions = regions
	}
	r.log.Info("refinement suggestions updated", "count", len(suggestions))
}

// EvaluateQuality scores the mesh and reports (not fails) when the
// configured metric falls below the quality threshold.
func (r *Refiner) EvaluateQuality() map[mesh.QualityMetric]float64 {
	if r.mesh == nil {
		r.log.Error("cannot evaluate quality: no mesh attached")
		return map[mesh.QualityMetric]float64{}
	}
	q := r.mesh.EvaluateQuality()
	if score, ok := q[r.qualityMetric]; ok && score < r.cfg.QualityThreshold {
		r.log.Warn("mesh quality below threshold, continuing",
			"metric", r.qualityMetric.String(),
			"score", score, "threshold", r.cfg.QualityThreshold)
	}
	return q
}

func (r *Refiner) enterPhase(p Phase, maxIterations int) {
	r.phase = p
	if r.progress != nil {
		frac := 0.0
		if maxIterations > 0 {
			frac = float64(r.iteration) / float64(maxIterations)
			if frac > 1 {
				frac = 1
			}
		}
		r.progress(ProgressEvent{Iteration: r.iteration, Phase: p, Fraction: frac})
	}
}

// AdaptiveCycle runs one estimate-select-refine-smooth-evaluate pass.
// It returns false on missing inputs (logged, recoverable) and true
// when refinement succeeded or no element needed refinement.
func (r *Refiner) AdaptiveCycle(results map[string]field.Field) bool {
	if r.mesh == nil {
		r.log.Error("cannot run cycle: no mesh attached")
		return false
	}

	r.enterPhase(PhaseEstimating, r.cfg.MaxIterations)
	errs := r.EstimateErrors(results)
	if len(errs) == 0 {
		r.log.Warn("error estimation empty, cycle aborted")
		return false
	}

	r.enterPhase(PhaseSelecting, r.cfg.MaxIterations)
	ids := r.SelectElements(errs)
	if len(ids) == 0 {
		r.log.Info("no elements selected, cycle complete")
		return true
	}

	r.enterPhase(PhaseRefining, r.cfg.MaxIterations)
	if !r.RefineMesh(ids) {
		r.log.Error("mesh refinement failed")
		return false
	}

	r.enterPhase(PhaseSmoothing, r.cfg.MaxIterations)
	if !r.SmoothMesh() {
		r.log.Warn("mesh smoothing failed, continuing")
	}

	r.enterPhase(PhaseEvaluating, r.cfg.MaxIterations)
	r.EvaluateQuality()

	r.log.Info("adaptive cycle complete", "iteration", r.iteration)
	return true
}

// Run drives up to maxIterations adaptive cycles. A maxIterations of
// zero uses the configured budget. After each successful cycle the
// error callback, when supplied, re-solves on the refined mesh and
// provides results for the next cycle. The run stops at the budget or
// on the first cycle failure.
func (r *Refiner) Run(maxIterations int, results map[string]field.Field, cb ErrorCallback) bool {
	if maxIterations <= 0 {
		maxIterations = r.cfg.MaxIterations
	}
	r.log.Info("adaptive refinement started", "max_iterations", maxIterations)

	r.iteration = 0
	r.phase = PhasePending
	iterationResults := results

	for r.iteration < maxIterations {
		before := r.iteration
		if !r.AdaptiveCycle(iterationResults) {
			r.log.Error("refinement cycle failed, aborting run", "iteration", r.iteration)
			return false
		}
		if r.iteration == before {
			// Natural stop: the cycle selected nothing.
			break
		}
		if r.iteration >= maxIterations {
			break
		}
		if cb != nil {
			iterationResults = cb(r.mesh, r.iteration)
		}
		if iterationResults == nil {
			iterationResults = results
		}
	}

	r.enterPhase(PhaseDone, maxIterations)
	r.log.Info("adaptive refinement complete", "iterations", r.iteration)
	return true
}
