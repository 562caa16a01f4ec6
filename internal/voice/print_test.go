package voice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeParseRoundTrip(t *testing.T) {
	p := NewPrint([]float64{0.25, -1.5, 3})
	assert.Equal(t, "0.25,-1.5,3", p.Serial)

	parsed, err := ParsePrint(p.Serial)
	require.NoError(t, err)
	assert.Equal(t, p.Vector, parsed.Vector)
}

func TestParsePrintToleratesSpaces(t *testing.T) {
	parsed, err := ParsePrint(" 1.0, 2.0 ,3.0 ")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, parsed.Vector)
}

func TestParsePrintRejectsGarbage(t *testing.T) {
	_, err := ParsePrint("1.0,abc")
	assert.Error(t, err)

	_, err = ParsePrint("   ")
	assert.Error(t, err)
}

func TestCosineSimilarityIsSymmetric(t *testing.T) {
	a := []float64{0.3, -0.7, 1.2, 0.05}
	b := []float64{1.1, 0.4, -0.2, 0.9}

	ab, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	ba, err := CosineSimilarity(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCosineSimilaritySelfIsOne(t *testing.T) {
	a := []float64{0.3, -0.7, 1.2}
	sim, err := CosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-12)
}

func TestCosineSimilarityOrthogonalIsZero(t *testing.T) {
	sim, err := CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 0}, []float64{0, 1, 0})
	assert.Error(t, err)
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	_, err := CosineSimilarity([]float64{0, 0}, []float64{1, 1})
	assert.Error(t, err)
}

func TestCosineSimilarityRange(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-1, -2, -3}
	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-12)
	assert.False(t, math.IsNaN(sim))
}
