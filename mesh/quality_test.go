package mesh

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitSquareIsPerfect(t *testing.T) {
	m, err := NewStructuredQuads(1, 1, 1, 1)
	require.NoError(t, err)

	q := m.ElementQuality(0)
	for _, metric := range []QualityMetric{AspectRatio, Skewness, Jacobian, MinAngle, Combined} {
		assert.InDelta(t, 1.0, q[metric], 1e-12, metric.String())
	}
}

func TestDegenerateElementScoresZero(t *testing.T) {
	m := &Mesh{
		Nodes:    []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}},
		Elements: []Quad{{Nodes: [4]int{0, 1, 2, 2}}},
	}
	q := m.ElementQuality(0)
	assert.Equal(t, 0.0, q[Combined])
}

func TestStretchedElementAspect(t *testing.T) {
	m, err := NewStructuredQuads(1, 1, 4, 1)
	require.NoError(t, err)
	q := m.ElementQuality(0)
	assert.InDelta(t, 0.25, q[AspectRatio], 1e-12)
	// Rectangles keep right angles.
	assert.InDelta(t, 1.0, q[MinAngle], 1e-12)
	assert.InDelta(t, 1.0, q[Skewness], 1e-12)
}

func TestEvaluateQualityAverages(t *testing.T) {
	m, err := NewStructuredQuads(3, 3, 1, 1)
	require.NoError(t, err)
	q := m.EvaluateQuality()
	assert.InDelta(t, 1.0, q[Combined], 1e-12)

	empty := &Mesh{}
	assert.Empty(t, empty.EvaluateQuality())
}

func TestParseQualityMetric(t *testing.T) {
	qm, ok := ParseQualityMetric("SKEWNESS")
	assert.True(t, ok)
	assert.Equal(t, Skewness, qm)

	qm, ok = ParseQualityMetric("min_angle")
	assert.True(t, ok)
	assert.Equal(t, MinAngle, qm)

	_, ok = ParseQualityMetric("bogus")
	assert.False(t, ok)
}
