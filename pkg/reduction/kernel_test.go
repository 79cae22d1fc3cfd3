package reduction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.InDelta(t, 1/(1+math.Exp(-2)), sigmoid(2), 1e-15)
	assert.InDelta(t, 1, sigmoid(800), 1e-15)
	assert.Equal(t, 0.0, sigmoid(math.Inf(-1)))
	assert.InDelta(t, 1, sigmoid(2)+sigmoid(-2), 1e-15)
}

func TestVariation(t *testing.T) {
	// Orthogonal embedding points with matching original similarity need no update
	assert.Equal(t, 0.0, variation([]float64{1, 0}, []float64{0, 1}, 0, 1))

	v := variation([]float64{1, 1}, []float64{1, 1}, 0, 0.5)
	assert.InDelta(t, 0.5*(sigmoid(2)-0.5), v, 1e-15)
	assert.Greater(t, v, 0.0)
}

func TestSplitmix64(t *testing.T) {
	// Reference outputs of SplitMix64 seeded with 0, advanced by the golden gamma
	assert.Equal(t, uint64(0xe220a8397b1dcdaf), splitmix64(0))
	assert.Equal(t, splitmix64(42), splitmix64(42))
	assert.NotEqual(t, splitmix64(42), splitmix64(43))
}

func TestRandomInit(t *testing.T) {
	a := make([]float64, 1000)
	randomInit(a, 42)

	var sum float64
	for _, v := range a {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
		sum += v
	}
	assert.InDelta(t, 0, sum/float64(len(a)), 0.1)

	b := make([]float64, 1000)
	randomInit(b, 42)
	assert.Equal(t, a, b)

	randomInit(b, 7)
	assert.NotEqual(t, a, b)

	zero := make([]float64, 4)
	randomInit(zero, 0)
	assert.NotEqual(t, zero[0], zero[1])
}

func TestApplyDeltas(t *testing.T) {
	target := []float64{1, 2, 3}
	discarded := applyDeltas(target, []float64{0.5, math.NaN(), math.Inf(1)})

	assert.Equal(t, 2, discarded)
	assert.Equal(t, []float64{1.5, 2, 3}, target)
}
