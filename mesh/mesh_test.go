package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStructuredQuads(t *testing.T) {
	m, err := NewStructuredQuads(10, 10, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 121, m.NumNodes())
	assert.Equal(t, 100, m.NumElements())
	require.NoError(t, m.Validate())

	// Every element is a unit/nx square.
	for e := range m.Elements {
		assert.InDelta(t, 0.01, m.Area(e), 1e-12)
	}
}

func TestNewStructuredQuadsRejectsBadArgs(t *testing.T) {
	_, err := NewStructuredQuads(0, 10, 1, 1)
	assert.Error(t, err)
	_, err = NewStructuredQuads(10, 10, -1, 1)
	assert.Error(t, err)
}

func TestValidateCatchesBadIndices(t *testing.T) {
	m, err := NewStructuredQuads(2, 2, 1, 1)
	require.NoError(t, err)
	m.Elements[0].Nodes[0] = 99
	assert.Error(t, m.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	m, err := NewStructuredQuads(2, 2, 1, 1)
	require.NoError(t, err)
	c := m.Clone()
	c.Nodes[0].X = 42
	c.Elements[0].Region = 7
	assert.Equal(t, 0.0, m.Nodes[0].X)
	assert.Equal(t, 0, m.Elements[0].Region)
}

func TestCentroid(t *testing.T) {
	m, err := NewStructuredQuads(1, 1, 2, 2)
	require.NoError(t, err)
	c := m.Centroid(0)
	assert.InDelta(t, 1.0, c.X, 1e-12)
	assert.InDelta(t, 1.0, c.Y, 1e-12)
}

func TestStringSummary(t *testing.T) {
	m, err := NewStructuredQuads(2, 3, 1, 1)
	require.NoError(t, err)
	s := m.String()
	assert.Contains(t, s, "Number of nodes: 12")
	assert.Contains(t, s, "Number of elements: 6")
	assert.Contains(t, s, "Regions: 1")
}
