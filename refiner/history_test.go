package refiner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorThreshold = 0.3
	r := gridRefiner(t, cfg, 4, 4)
	r.SetEstimator(flatEstimator(1.0))

	require.True(t, r.Run(2, nil, nil))

	s := r.Statistics()
	assert.Equal(t, 2, s.Iterations)
	assert.Equal(t, 16, s.InitialElements)
	assert.Equal(t, 25, s.InitialNodes)
	assert.Equal(t, r.Mesh().NumElements(), s.FinalElements)
	assert.Equal(t, r.Mesh().NumNodes(), s.FinalNodes)
	assert.InDelta(t, 16.0, s.ElementGrowth, 1e-12) // two full 4x passes
	assert.Greater(t, s.AvgElementsPerIteration, 0.0)
}

func TestStatisticsEmptyHistory(t *testing.T) {
	r := New(DefaultConfig(), nil)
	s := r.Statistics()
	assert.Equal(t, 0, s.Iterations)
	assert.Equal(t, 0, s.FinalElements)
}

func TestHistorySaveLoadRoundtrip(t *testing.T) {
	r := gridRefiner(t, DefaultConfig(), 2, 2)
	require.True(t, r.RefineMesh([]int{0}))
	require.True(t, r.RefineMesh([]int{1}))

	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, r.SaveHistory(path))

	resumed := New(DefaultConfig(), nil)
	require.NoError(t, resumed.LoadHistory(path))

	require.Len(t, resumed.History(), 2)
	assert.Equal(t, r.History()[0].NewElements, resumed.History()[0].NewElements)
	// The iteration counter resumes after the last recorded pass.
	assert.Equal(t, 2, resumed.Iteration())
}

func TestLoadHistoryMissingFile(t *testing.T) {
	r := New(DefaultConfig(), nil)
	assert.Error(t, r.LoadHistory(filepath.Join(t.TempDir(), "none.json")))
}
