package reduction

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is how many samples a worker processes between context checks.
const cancelCheckInterval = 64

// runIterations drives step for cfg.Iterations passes. Verbose models report
// progress roughly every tenth of the run.
func runIterations(ctx context.Context, cfg Config, step func(ctx context.Context, iteration int) error) error {
	start := time.Now()
	reportEvery := cfg.Iterations / 10
	if reportEvery < 1 {
		reportEvery = 1
	}

	for it := 0; it < cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		iterStart := time.Now()
		if err := step(ctx, it); err != nil {
			return err
		}
		IterationsTotal.WithLabelValues(cfg.ModelName).Inc()
		IterationDuration.WithLabelValues(cfg.ModelName).Observe(time.Since(iterStart).Seconds())

		done := it + 1
		event := log.Debug()
		if cfg.Verbose && (done%reportEvery == 0 || done == cfg.Iterations) {
			event = log.Info()
		}
		event.
			Str("model", cfg.ModelName).
			Int("iteration", done).
			Int("iterations", cfg.Iterations).
			Dur("elapsed", time.Since(start)).
			Msg("Iteration complete")
	}
	return nil
}

// chunking returns how many contiguous chunks [0, n) is split into and their size.
func chunking(n, workers int) (count, size int) {
	if n <= 0 {
		return 0, 0
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	size = (n + workers - 1) / workers
	count = (n + size - 1) / size
	return count, size
}

// parallelChunks runs fn on each chunk of [0, n) in its own goroutine. The
// worker index passed to fn is stable for a given n and worker count.
func parallelChunks(ctx context.Context, n, workers int, fn func(ctx context.Context, worker, start, end int) error) error {
	count, size := chunking(n, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < count; w++ {
		start := w * size
		end := min(start+size, n)
		worker := w
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, worker, start, end)
		})
	}
	return g.Wait()
}
