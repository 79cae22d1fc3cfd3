package reduction

import (
	"context"
	"testing"

	"github.com/objones25/dimred/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPartner(t *testing.T) {
	const n = 37
	state := splitmix64(42)
	counts := make([]int, n)
	for i := 0; i < 10*n; i++ {
		j := partner(state, i, n)
		require.GreaterOrEqual(t, j, 0)
		require.Less(t, j, n)
		counts[j]++
		assert.Equal(t, j, partner(state, i, n))
	}

	var hit int
	for _, c := range counts {
		if c > 0 {
			hit++
		}
	}
	assert.Greater(t, hit, n/2, "partners should spread over the samples")
}

func TestSampledSigmoidDecomposition(t *testing.T) {
	testutil.QuietLogs(t)
	ds := loadIris(t)

	model, err := NewSampledSigmoidDecomposition(Config{Iterations: 20, LearningRate: 0.1, NumWorkers: 3})
	require.NoError(t, err)
	assert.Equal(t, "Sampled Sigmoid Decomposition", model.Name())

	first, err := model.FitTransform(context.Background(), ds.Data, 3)
	require.NoError(t, err)
	rows, cols := first.Dims()
	assert.Equal(t, 150, rows)
	assert.Equal(t, 3, cols)
	assertFinite(t, first)

	second, err := model.FitTransform(context.Background(), ds.Data, 3)
	require.NoError(t, err)
	assert.True(t, mat.Equal(first, second))
}

func TestSampledSigmoidDecompositionErrors(t *testing.T) {
	_, err := NewSampledSigmoidDecomposition(Config{ModelName: "x", Iterations: 1, LearningRate: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	model, err := NewSampledSigmoidDecomposition(Config{Iterations: 1, LearningRate: 1})
	require.NoError(t, err)
	_, err = model.FitTransform(context.Background(), nil, 2)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
