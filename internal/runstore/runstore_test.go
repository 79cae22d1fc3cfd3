package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &Run{
		Dataset:         "iris",
		Algorithm:       "barnes-hut",
		Model:           "Barnes-Hut Sigmoid Decomposition",
		Rows:            150,
		Cols:            4,
		TargetDimension: 2,
		Iterations:      2,
		LearningRate:    1,
		Depth:           4,
		RandomState:     1<<63 + 5, // beyond int64
		Duration:        1234 * time.Microsecond,
		CacheHit:        true,
	}
	require.NoError(t, s.Record(ctx, run))
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRecordValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Record(ctx, nil), ErrInvalidRun)
	assert.ErrorIs(t, s.Record(ctx, &Run{Dataset: "iris"}), ErrInvalidRun)
	assert.ErrorIs(t, s.Record(ctx, &Run{Algorithm: "pca"}), ErrInvalidRun)

	// Duplicate IDs are rejected by the primary key
	run := &Run{Dataset: "iris", Algorithm: "pca"}
	require.NoError(t, s.Record(ctx, run))
	dup := *run
	assert.Error(t, s.Record(ctx, &dup))
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, algo := range []string{"pca", "sigmoid", "barnes-hut"} {
		require.NoError(t, s.Record(ctx, &Run{
			Dataset:   "iris",
			Algorithm: algo,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "barnes-hut", runs[0].Algorithm)
	assert.Equal(t, "sigmoid", runs[1].Algorithm)
	assert.Equal(t, "pca", runs[2].Algorithm)

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "barnes-hut", runs[0].Algorithm)

	empty := openTestStore(t)
	runs, err = empty.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	run := &Run{Dataset: "iris", Algorithm: "sampled"}
	require.NoError(t, s.Record(ctx, run))
	require.NoError(t, s.Close())

	// Migrations are not re-applied on an up-to-date schema
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "sampled", got.Algorithm)
	assert.False(t, got.CacheHit)
}
