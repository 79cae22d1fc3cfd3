// Package runner ties a reducer to the embedding cache and the run history.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/objones25/dimred/internal/cache"
	"github.com/objones25/dimred/internal/runstore"
	"github.com/objones25/dimred/pkg/reduction"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidRequest is returned for a request without data or dataset name
var ErrInvalidRequest = errors.New("invalid run request")

// Request describes one fit
type Request struct {
	Dataset         string // Name recorded in the run history
	Data            mat.Matrix
	Algorithm       reduction.Algorithm
	Config          reduction.Config
	TargetDimension int
}

// Result is the outcome of a fit
type Result struct {
	Embedding *mat.Dense
	Run       *runstore.Run
	CacheHit  bool
}

// Runner executes fits. Cache and Store are optional.
type Runner struct {
	cache cache.Cache
	store *runstore.Store
	keys  *cache.KeyGenerator
}

// New creates a runner. Either dependency may be nil.
func New(c cache.Cache, store *runstore.Store, keys *cache.KeyGenerator) *Runner {
	if keys == nil {
		keys = cache.NewKeyGenerator("")
	}
	return &Runner{cache: c, store: store, keys: keys}
}

// Run fits req, serving the embedding from the cache when an identical fit was stored before.
func (r *Runner) Run(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	algo := string(req.Algorithm)
	defer func() {
		status := statusSuccess
		if err != nil {
			status = statusError
		}
		RunsTotal.WithLabelValues(algo, status).Inc()
		RunDuration.WithLabelValues(algo).Observe(time.Since(start).Seconds())
	}()

	if req.Data == nil || req.Dataset == "" {
		return nil, fmt.Errorf("%w: data and dataset name are required", ErrInvalidRequest)
	}

	reducer, err := reduction.New(req.Algorithm, req.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create reducer: %w", err)
	}

	cfg := req.Config
	if c, ok := reducer.(interface{ Config() reduction.Config }); ok {
		cfg = c.Config()
	}

	var key string
	if r.cache != nil {
		key = r.keys.GenerateKey(algo, cacheParams(req.Algorithm, cfg), req.TargetDimension, req.Data)
		if embedding := r.lookup(ctx, key); embedding != nil {
			res = &Result{Embedding: embedding, CacheHit: true}
		}
	}

	if res == nil {
		embedding, err := reducer.FitTransform(ctx, req.Data, req.TargetDimension)
		if err != nil {
			return nil, fmt.Errorf("failed to fit %s: %w", reducer.Name(), err)
		}
		res = &Result{Embedding: embedding}

		if r.cache != nil {
			if err := r.cache.Set(ctx, key, cache.NewEntry(reducer.Name(), embedding)); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to cache embedding")
			}
		}
	}

	rows, cols := req.Data.Dims()
	res.Run = &runstore.Run{
		Dataset:         req.Dataset,
		Algorithm:       algo,
		Model:           reducer.Name(),
		Rows:            rows,
		Cols:            cols,
		TargetDimension: req.TargetDimension,
		Iterations:      cfg.Iterations,
		LearningRate:    cfg.LearningRate,
		Depth:           cfg.Depth,
		RandomState:     cfg.RandomState,
		Duration:        time.Since(start),
		CacheHit:        res.CacheHit,
	}
	if r.store != nil {
		if err := r.store.Record(ctx, res.Run); err != nil {
			log.Warn().Err(err).Msg("Failed to record run")
		}
	}

	log.Info().
		Str("dataset", req.Dataset).
		Str("model", reducer.Name()).
		Int("samples", rows).
		Bool("cache_hit", res.CacheHit).
		Dur("duration", res.Run.Duration).
		Msg("Fit complete")
	return res, nil
}

// lookup returns the cached embedding for key, or nil. Cache failures count as misses.
func (r *Runner) lookup(ctx context.Context, key string) *mat.Dense {
	entry, err := r.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
	}
	if entry == nil {
		CacheLookups.WithLabelValues(lookupMiss).Inc()
		return nil
	}
	embedding, err := entry.Dense()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding invalid cache entry")
		CacheLookups.WithLabelValues(lookupMiss).Inc()
		return nil
	}
	CacheLookups.WithLabelValues(lookupHit).Inc()
	return embedding
}

// cacheParams renders every setting that changes the embedding of algo.
func cacheParams(algo reduction.Algorithm, cfg reduction.Config) string {
	switch algo {
	case reduction.AlgorithmPCA:
		return ""
	case reduction.AlgorithmSigmoid:
		// Exact pairwise sums do not depend on the worker count.
		return fmt.Sprintf("iterations=%d lr=%v seed=%d init=%s",
			cfg.Iterations, cfg.LearningRate, cfg.RandomState, cfg.Init)
	default:
		return fmt.Sprintf("iterations=%d lr=%v seed=%d init=%s depth=%d workers=%d",
			cfg.Iterations, cfg.LearningRate, cfg.RandomState, cfg.Init, cfg.Depth, cfg.NumWorkers)
	}
}
