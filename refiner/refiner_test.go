package refiner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepexcav/femadapt/coupling"
	"github.com/deepexcav/femadapt/field"
	"github.com/deepexcav/femadapt/mesh"
)

// flatEstimator flags every element with the same error value.
func flatEstimator(v float64) Estimator {
	return func(m *mesh.Mesh, results map[string]field.Field) ErrorMap {
		errs := make(ErrorMap, m.NumElements())
		for e := 0; e < m.NumElements(); e++ {
			errs[e] = v
		}
		return errs
	}
}

func TestAdaptiveCycleRefinesEverythingAboveThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorThreshold = 0.3
	cfg.RefinementRatio = 0.2
	r := gridRefiner(t, cfg, 10, 10)
	r.SetEstimator(flatEstimator(1.0))

	require.True(t, r.AdaptiveCycle(nil))

	// All 100 elements exceed the threshold: each becomes 4 children
	// and contributes 5 new nodes.
	assert.Equal(t, 400, r.Mesh().NumElements())
	assert.Equal(t, 621, r.Mesh().NumNodes())
	assert.Equal(t, 1, r.Iteration())
	require.NoError(t, r.Mesh().Validate())
}

func TestAdaptiveCycleWithoutMeshFails(t *testing.T) {
	r := New(DefaultConfig(), nil)
	assert.False(t, r.AdaptiveCycle(nil))
}

func TestAdaptiveCycleEmptyEstimateFails(t *testing.T) {
	r := gridRefiner(t, DefaultConfig(), 2, 2)
	r.SetEstimator(func(m *mesh.Mesh, results map[string]field.Field) ErrorMap {
		return ErrorMap{}
	})
	assert.False(t, r.AdaptiveCycle(nil))
}

func TestRunStopsAtBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorThreshold = 0.3
	r := gridRefiner(t, cfg, 4, 4)
	r.SetEstimator(flatEstimator(1.0))

	callbacks := 0
	require.True(t, r.Run(2, nil, func(m *mesh.Mesh, iteration int) map[string]field.Field {
		callbacks++
		assert.Equal(t, callbacks, iteration)
		return nil
	}))

	assert.Equal(t, 2, r.Iteration())
	assert.Equal(t, 1, callbacks)
	assert.Equal(t, PhaseDone, r.Phase())
	assert.Len(t, r.History(), 2)
}

func TestRunStopsWhenNothingSelected(t *testing.T) {
	r := gridRefiner(t, DefaultConfig(), 2, 2)
	r.SetEstimator(flatEstimator(1.0))
	// Target a region no element carries: selection is always empty.
	r.AddTargetedRegion(42, 1)
	r.SetStrategy(Targeted)

	require.True(t, r.Run(5, nil, nil))
	assert.Equal(t, 0, r.Iteration())
	assert.Equal(t, PhaseDone, r.Phase())
	assert.Equal(t, 4, r.Mesh().NumElements())
}

func TestProgressEventsCoverPhases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorThreshold = 0.3
	r := gridRefiner(t, cfg, 2, 2)
	r.SetEstimator(flatEstimator(1.0))

	var phases []Phase
	r.SetProgressFunc(func(ev ProgressEvent) {
		phases = append(phases, ev.Phase)
		assert.GreaterOrEqual(t, ev.Fraction, 0.0)
		assert.LessOrEqual(t, ev.Fraction, 1.0)
	})

	require.True(t, r.Run(1, nil, nil))
	assert.Equal(t, []Phase{
		PhaseEstimating, PhaseSelecting, PhaseRefining,
		PhaseSmoothing, PhaseEvaluating, PhaseDone,
	}, phases)
}

func TestUpdateSuggestionsRewritesTargetedRegions(t *testing.T) {
	r := gridRefiner(t, DefaultConfig(), 2, 2)
	r.AddTargetedRegion(1, 1)

	r.UpdateSuggestions([]coupling.Suggestion{
		{Variable: "stress", RegionID: 9, Level: 2},
		{Variable: "displacement"},
	})

	regions := r.Config().TargetedRegions
	require.Len(t, regions, 1)
	assert.Equal(t, 9, regions[0].ID)
	assert.Equal(t, 2, regions[0].Level)
}

func TestUpdatePINNErrorMapDefaultsConfidence(t *testing.T) {
	r := gridRefiner(t, DefaultConfig(), 2, 2)
	r.UpdatePINNErrorMap(ErrorMap{0: 0.5, 3: 0.9}, nil)
	assert.Equal(t, 1.0, r.pinnConfidence[0])
	assert.Equal(t, 1.0, r.pinnConfidence[3])
}

func TestEvaluateQuality(t *testing.T) {
	r := gridRefiner(t, DefaultConfig(), 3, 3)
	q := r.EvaluateQuality()
	assert.InDelta(t, 1.0, q[mesh.Combined], 1e-12)

	empty := New(DefaultConfig(), nil)
	assert.Empty(t, empty.EvaluateQuality())
}
