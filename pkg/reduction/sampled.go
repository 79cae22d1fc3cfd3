package reduction

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const sampledModelName = "Sampled Sigmoid Decomposition"

// SampledSigmoidDecomposition pairs every sample with one pseudo-random partner
// per iteration. The original similarity of a pair is the logarithm of the
// normalised dot product, so pairs with a negative dot product produce no
// update.
type SampledSigmoidDecomposition struct {
	config Config
}

// NewSampledSigmoidDecomposition creates a sampled sigmoid reducer
func NewSampledSigmoidDecomposition(cfg Config) (*SampledSigmoidDecomposition, error) {
	cfg = cfg.withDefaults(sampledModelName)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SampledSigmoidDecomposition{config: cfg}, nil
}

// Name implements Reducer
func (d *SampledSigmoidDecomposition) Name() string {
	return d.config.ModelName
}

// Config returns the effective configuration
func (d *SampledSigmoidDecomposition) Config() Config {
	return d.config
}

// partner returns the sample paired with i for the given iteration state.
func partner(state uint64, i, n int) int {
	return int(splitmix64(state+uint64(i)*state) % uint64(n))
}

// FitTransform implements Reducer
func (d *SampledSigmoidDecomposition) FitTransform(ctx context.Context, x mat.Matrix, targetDimension int) (*mat.Dense, error) {
	n, cols, err := validateInput(x, targetDimension)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		FitDuration.WithLabelValues(d.config.ModelName).Observe(time.Since(start).Seconds())
	}()

	z, err := standardize(x)
	if err != nil {
		return nil, err
	}
	dim := targetDimension
	target, err := initialEmbedding(x, n, dim, d.config)
	if err != nil {
		return nil, err
	}

	lr := d.config.LearningRate
	deltas := make([]float64, n*dim)
	workers, _ := chunking(n, d.config.NumWorkers)
	workerDeltas := make([][]float64, workers)
	for w := range workerDeltas {
		workerDeltas[w] = make([]float64, n*dim)
	}
	skipped := make([]int, workers)
	state := splitmix64(d.config.RandomState)

	err = runIterations(ctx, d.config, func(ctx context.Context, _ int) error {
		state = splitmix64(state)
		iterState := state
		clear(deltas)
		for w := range workerDeltas {
			clear(workerDeltas[w])
		}
		clear(skipped)

		err := parallelChunks(ctx, n, d.config.NumWorkers, func(ctx context.Context, worker, start, end int) error {
			local := workerDeltas[worker]
			for i := start; i < end; i++ {
				if (i-start)%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				j := partner(iterState, i, n)
				if j == i {
					continue
				}
				ti := target[i*dim : (i+1)*dim]
				tj := target[j*dim : (j+1)*dim]
				original := math.Log(floats.Dot(z[i*cols:(i+1)*cols], z[j*cols:(j+1)*cols]))
				v := variation(ti, tj, original, lr)
				if !finite(v) {
					skipped[worker]++
					continue
				}
				floats.AddScaled(local[i*dim:(i+1)*dim], -v, tj)
				floats.AddScaled(local[j*dim:(j+1)*dim], -v, ti)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, local := range workerDeltas {
			floats.Add(deltas, local)
		}
		discarded := applyDeltas(target, deltas)
		for _, s := range skipped {
			discarded += s * dim
		}
		if discarded > 0 {
			DiscardedUpdates.WithLabelValues(d.config.ModelName).Add(float64(discarded))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mat.NewDense(n, dim, target), nil
}
