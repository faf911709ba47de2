package resample

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skewedSet(nMajority, nMinority int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []int
	for i := 0; i < nMajority; i++ {
		X = append(X, []float64{rng.NormFloat64(), rng.NormFloat64()})
		y = append(y, 0)
	}
	for i := 0; i < nMinority; i++ {
		X = append(X, []float64{5 + rng.NormFloat64(), 5 + rng.NormFloat64()})
		y = append(y, 1)
	}
	return X, y
}

func TestResampleReachesTargetRatio(t *testing.T) {
	X, y := skewedSet(200, 40, 1)

	outX, outY, err := NewSMOTE(42).Resample(X, y)
	require.NoError(t, err)
	require.Equal(t, len(outX), len(outY))

	counts := map[int]int{}
	for _, label := range outY {
		counts[label]++
	}
	assert.Equal(t, 200, counts[0])
	ratio := float64(counts[1]) / float64(counts[0])
	assert.InDelta(t, 1.0, ratio, 0.02)
}

func TestResampleKeepsOriginalRows(t *testing.T) {
	X, y := skewedSet(50, 10, 2)

	outX, outY, err := NewSMOTE(7).Resample(X, y)
	require.NoError(t, err)
	for i := range X {
		assert.Equal(t, X[i], outX[i])
		assert.Equal(t, y[i], outY[i])
	}
}

func TestResampleDeterministic(t *testing.T) {
	X, y := skewedSet(80, 15, 3)

	x1, y1, err := NewSMOTE(99).Resample(X, y)
	require.NoError(t, err)
	x2, y2, err := NewSMOTE(99).Resample(X, y)
	require.NoError(t, err)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
}

func TestResampleSyntheticRowsInterpolate(t *testing.T) {
	X, y := skewedSet(100, 20, 4)

	outX, outY, err := NewSMOTE(5).Resample(X, y)
	require.NoError(t, err)

	// Minority cluster sits near (5, 5); synthetic rows must stay inside it.
	for i := len(X); i < len(outX); i++ {
		require.Equal(t, 1, outY[i])
		assert.Greater(t, outX[i][0], 1.0)
		assert.Greater(t, outX[i][1], 1.0)
	}
}

func TestResampleLoneMinorityDuplicates(t *testing.T) {
	X := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {9, 9}}
	y := []int{0, 0, 0, 0, 1}

	outX, outY, err := NewSMOTE(1).Resample(X, y)
	require.NoError(t, err)
	for i := len(X); i < len(outX); i++ {
		assert.Equal(t, []float64{9, 9}, outX[i])
		assert.Equal(t, 1, outY[i])
	}
}

func TestResampleBalancedInputUnchanged(t *testing.T) {
	X, y := skewedSet(30, 30, 5)
	outX, outY, err := NewSMOTE(1).Resample(X, y)
	require.NoError(t, err)
	assert.Equal(t, X, outX)
	assert.Equal(t, y, outY)
}

func TestResampleValidatesInput(t *testing.T) {
	_, _, err := NewSMOTE(1).Resample([][]float64{{1}}, []int{0, 1})
	assert.Error(t, err)

	_, _, err = NewSMOTE(1).Resample(nil, nil)
	assert.Error(t, err)

	s := NewSMOTE(1)
	s.TargetRatio = 0
	X, y := skewedSet(10, 2, 6)
	_, _, err = s.Resample(X, y)
	assert.Error(t, err)
}
