package tfidf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBeforeFit(t *testing.T) {
	e := NewEmbedder()
	_, err := e.EmbedOne("hello")
	assert.Error(t, err)
}

func TestFitEmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Fit(nil))
}

func TestEmbedDimensionStable(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Fit([]string{"cats chase mice", "dogs chase cats"}))
	dim := e.Dimension()
	require.Greater(t, dim, 0)
	v1, err := e.EmbedOne("cats")
	require.NoError(t, err)
	v2, err := e.EmbedOne("dogs chase")
	require.NoError(t, err)
	assert.Len(t, v1, dim)
	assert.Len(t, v2, dim)
}

func TestEmbedNormalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Fit([]string{"red green blue", "green blue yellow"}))
	v, err := e.EmbedOne("red green")
	require.NoError(t, err)
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEmbedUnknownTokensZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Fit([]string{"alpha beta"}))
	v, err := e.EmbedOne("unrelated words entirely")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedManyOrder(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Fit([]string{"alpha beta", "gamma delta"}))
	vs, err := e.EmbedMany([]string{"alpha", "gamma"})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	one, _ := e.EmbedOne("alpha")
	assert.Equal(t, one, vs[0])
}
