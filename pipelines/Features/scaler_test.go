package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalerFitTransform(t *testing.T) {
	X := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
	}
	s := &StandardScaler{}
	require.NoError(t, s.Fit(X))

	assert.InDelta(t, 2, s.Mean[0], 1e-9)
	assert.InDelta(t, 20, s.Mean[1], 1e-9)
	// Constant column keeps unit scale.
	assert.Equal(t, 1.0, s.Std[2])

	out, err := s.Transform(X)
	require.NoError(t, err)
	for _, row := range out {
		assert.Equal(t, 0.0, row[2])
	}
	assert.Negative(t, out[0][0])
	assert.InDelta(t, 0, out[1][0], 1e-9)
	assert.Positive(t, out[2][0])
}

func TestScalerRejectsRaggedInput(t *testing.T) {
	s := &StandardScaler{}
	err := s.Fit([][]float64{{1, 2}, {1}})
	assert.Error(t, err)
}

func TestScalerRejectsUnfittedTransform(t *testing.T) {
	s := &StandardScaler{}
	_, err := s.TransformRow([]float64{1})
	assert.Error(t, err)
}

func TestScalerWidthMismatch(t *testing.T) {
	s := &StandardScaler{}
	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}}))
	_, err := s.TransformRow([]float64{1, 2, 3})
	assert.Error(t, err)
}
