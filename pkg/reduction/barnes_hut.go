package reduction

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const barnesHutModelName = "Barnes-Hut Sigmoid Decomposition"

// BarnesHutSigmoidDecomposition embeds data in two dimensions. Every iteration
// builds a quadtree of Depth layers over the current embedding: samples in the
// same leaf interact exactly, every other sample is reached through the
// population-weighted average of the largest cell that does not contain it.
type BarnesHutSigmoidDecomposition struct {
	config Config
}

// NewBarnesHutSigmoidDecomposition creates a Barnes-Hut reducer
func NewBarnesHutSigmoidDecomposition(cfg Config) (*BarnesHutSigmoidDecomposition, error) {
	cfg = cfg.withDefaults(barnesHutModelName)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateDepth(); err != nil {
		return nil, err
	}
	return &BarnesHutSigmoidDecomposition{config: cfg}, nil
}

// Name implements Reducer
func (d *BarnesHutSigmoidDecomposition) Name() string {
	return d.config.ModelName
}

// Config returns the effective configuration
func (d *BarnesHutSigmoidDecomposition) Config() Config {
	return d.config
}

// FitTransform implements Reducer. targetDimension must be 2.
func (d *BarnesHutSigmoidDecomposition) FitTransform(ctx context.Context, x mat.Matrix, targetDimension int) (*mat.Dense, error) {
	n, cols, err := validateInput(x, targetDimension)
	if err != nil {
		return nil, err
	}
	if targetDimension != gridDimension {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedTargetDimension, targetDimension)
	}

	start := time.Now()
	defer func() {
		FitDuration.WithLabelValues(d.config.ModelName).Observe(time.Since(start).Seconds())
	}()

	z, err := standardize(x)
	if err != nil {
		return nil, err
	}
	target, err := initialEmbedding(x, n, gridDimension, d.config)
	if err != nil {
		return nil, err
	}

	lr := d.config.LearningRate
	invN := 1 / float64(n)
	grid := newGradientGrid(d.config.Depth, cols)
	deltas := make([]float64, n*gridDimension)
	// Far pairs are visited from both sides, so each side carries half the weight.
	farScale := invN / 2
	workers, _ := chunking(n, d.config.NumWorkers)
	workerGradients := make([]map[int][gridDimension]float64, workers)
	for w := range workerGradients {
		workerGradients[w] = make(map[int][gridDimension]float64)
	}

	log.Debug().
		Str("model", d.config.ModelName).
		Int("samples", n).
		Int("features", cols).
		Int("depth", d.config.Depth).
		Int("cells", grid.numCells()).
		Msg("Starting fit")

	err = runIterations(ctx, d.config, func(ctx context.Context, _ int) error {
		grid.prepare(target, z)
		clear(deltas)
		for _, g := range workerGradients {
			clear(g)
		}

		err := parallelChunks(ctx, n, d.config.NumWorkers, func(ctx context.Context, worker, start, end int) error {
			gradients := workerGradients[worker]
			for i := start; i < end; i++ {
				if (i-start)%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}

				ti := target[i*gridDimension : (i+1)*gridDimension]
				zi := z[i*cols : (i+1)*cols]
				di := deltas[i*gridDimension : (i+1)*gridDimension]
				leaf := grid.leafOf[i]

				grid.farCells(leaf, func(cell int) {
					u := grid.targetAverage(cell)
					v := variation(ti, u, floats.Dot(zi, grid.originalAverage(cell)), lr)
					weight := v * float64(grid.populations[cell]) * farScale
					g := gradients[cell]
					for k := range di {
						di[k] -= u[k] * weight
						g[k] -= ti[k] * v * farScale
					}
					gradients[cell] = g
				})

				for _, j := range grid.leafMembers[leaf] {
					if j == i {
						continue
					}
					tj := target[j*gridDimension : (j+1)*gridDimension]
					v := variation(ti, tj, floats.Dot(zi, z[j*cols:(j+1)*cols]), lr)
					for k := range di {
						di[k] -= tj[k] * v * invN
					}
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Per cell, contributions are summed in worker order.
		for _, gradients := range workerGradients {
			for cell, g := range gradients {
				dst := grid.gradient(cell)
				dst[0] += g[0]
				dst[1] += g[1]
			}
		}
		grid.downpropagateGradient()
		for i := 0; i < n; i++ {
			floats.Add(deltas[i*gridDimension:(i+1)*gridDimension], grid.leafGradient(i))
		}

		if discarded := applyDeltas(target, deltas); discarded > 0 {
			DiscardedUpdates.WithLabelValues(d.config.ModelName).Add(float64(discarded))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mat.NewDense(n, gridDimension, target), nil
}
