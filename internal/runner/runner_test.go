package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/objones25/dimred/internal/cache"
	"github.com/objones25/dimred/internal/runstore"
	"github.com/objones25/dimred/internal/testutil"
	"github.com/objones25/dimred/pkg/datasets"
	"github.com/objones25/dimred/pkg/reduction"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func irisRequest(t *testing.T) Request {
	t.Helper()
	ds, err := datasets.LoadIris()
	require.NoError(t, err)
	return Request{
		Dataset:         ds.Name,
		Data:            ds.Data,
		Algorithm:       reduction.AlgorithmBarnesHut,
		Config:          reduction.Config{Iterations: 2, LearningRate: 1, Depth: 4, NumWorkers: 2},
		TargetDimension: 2,
	}
}

func TestRunCachesEmbedding(t *testing.T) {
	testutil.QuietLogs(t)
	ctx := context.Background()

	c, err := cache.NewMemoryCache(8)
	require.NoError(t, err)
	store, err := runstore.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	r := New(c, store, nil)
	req := irisRequest(t)

	hits := promtest.ToFloat64(CacheLookups.WithLabelValues(lookupHit))
	misses := promtest.ToFloat64(CacheLookups.WithLabelValues(lookupMiss))
	successes := promtest.ToFloat64(RunsTotal.WithLabelValues("barnes-hut", statusSuccess))

	first, err := r.Run(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	rows, cols := first.Embedding.Dims()
	assert.Equal(t, 150, rows)
	assert.Equal(t, 2, cols)

	second, err := r.Run(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.True(t, mat.Equal(first.Embedding, second.Embedding))

	assert.Equal(t, hits+1, promtest.ToFloat64(CacheLookups.WithLabelValues(lookupHit)))
	assert.Equal(t, misses+1, promtest.ToFloat64(CacheLookups.WithLabelValues(lookupMiss)))
	assert.Equal(t, successes+2, promtest.ToFloat64(RunsTotal.WithLabelValues("barnes-hut", statusSuccess)))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.Run.ID, runs[0].ID)
	assert.True(t, runs[0].CacheHit)
	assert.False(t, runs[1].CacheHit)
	assert.Equal(t, "iris", runs[1].Dataset)
	assert.Equal(t, 4, runs[1].Depth)
	assert.Equal(t, uint64(0), runs[1].RandomState)
	assert.Equal(t, "Barnes-Hut Sigmoid Decomposition", runs[1].Model)

	// A different learning rate is a different fit
	req.Config.LearningRate = 0.5
	third, err := r.Run(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestRunWithoutCacheOrStore(t *testing.T) {
	testutil.QuietLogs(t)
	req := irisRequest(t)
	req.Algorithm = reduction.AlgorithmPCA

	res, err := New(nil, nil, nil).Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, "PCA Decomposition", res.Run.Model)
}

func TestRunErrors(t *testing.T) {
	testutil.QuietLogs(t)
	ctx := context.Background()
	r := New(nil, nil, nil)

	failures := promtest.ToFloat64(RunsTotal.WithLabelValues("barnes-hut", statusError))

	req := irisRequest(t)
	req.TargetDimension = 3
	_, err := r.Run(ctx, req)
	assert.ErrorIs(t, err, reduction.ErrUnsupportedTargetDimension)

	req = irisRequest(t)
	req.Config.LearningRate = 0
	_, err = r.Run(ctx, req)
	assert.ErrorIs(t, err, reduction.ErrInvalidConfig)

	assert.Equal(t, failures+2, promtest.ToFloat64(RunsTotal.WithLabelValues("barnes-hut", statusError)))

	req = irisRequest(t)
	req.Algorithm = "umap"
	_, err = r.Run(ctx, req)
	assert.ErrorIs(t, err, reduction.ErrUnknownAlgorithm)

	req = irisRequest(t)
	req.Data = nil
	_, err = r.Run(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Run(ctx, irisRequest(t))
	assert.True(t, errors.Is(err, context.Canceled))
}

// failingCache always errors, which the runner treats as a miss.
type failingCache struct{ cache.Cache }

func (failingCache) Get(context.Context, string) (*cache.Entry, error) {
	return nil, errors.New("connection reset")
}

func (failingCache) Set(context.Context, string, *cache.Entry) error {
	return errors.New("connection reset")
}

func TestRunToleratesCacheFailures(t *testing.T) {
	testutil.QuietLogs(t)
	res, err := New(failingCache{}, nil, nil).Run(context.Background(), irisRequest(t))
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
}

func TestCacheParams(t *testing.T) {
	cfg := reduction.DefaultConfig()
	assert.Empty(t, cacheParams(reduction.AlgorithmPCA, cfg))

	sigmoid := cacheParams(reduction.AlgorithmSigmoid, cfg)
	cfg.NumWorkers++
	assert.Equal(t, sigmoid, cacheParams(reduction.AlgorithmSigmoid, cfg))
	assert.NotEqual(t, cacheParams(reduction.AlgorithmBarnesHut, reduction.DefaultConfig()), cacheParams(reduction.AlgorithmBarnesHut, cfg))
}
