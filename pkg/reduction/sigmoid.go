package reduction

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const sigmoidModelName = "Sigmoid Decomposition"

// SigmoidDecomposition is the exact pairwise reducer. Every iteration costs
// O(n^2) dot products, which makes it the reference the approximations are
// measured against on small inputs.
type SigmoidDecomposition struct {
	config Config
}

// NewSigmoidDecomposition creates an exact sigmoid reducer
func NewSigmoidDecomposition(cfg Config) (*SigmoidDecomposition, error) {
	cfg = cfg.withDefaults(sigmoidModelName)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SigmoidDecomposition{config: cfg}, nil
}

// Name implements Reducer
func (d *SigmoidDecomposition) Name() string {
	return d.config.ModelName
}

// Config returns the effective configuration
func (d *SigmoidDecomposition) Config() Config {
	return d.config
}

// FitTransform implements Reducer
func (d *SigmoidDecomposition) FitTransform(ctx context.Context, x mat.Matrix, targetDimension int) (*mat.Dense, error) {
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
	invN := 1 / float64(n)
	deltas := make([]float64, n*dim)

	err = runIterations(ctx, d.config, func(ctx context.Context, _ int) error {
		clear(deltas)
		err := parallelChunks(ctx, n, d.config.NumWorkers, func(ctx context.Context, _, start, end int) error {
			for i := start; i < end; i++ {
				if (i-start)%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				ti := target[i*dim : (i+1)*dim]
				zi := z[i*cols : (i+1)*cols]
				di := deltas[i*dim : (i+1)*dim]
				for j := 0; j < n; j++ {
					if j == i {
						continue
					}
					tj := target[j*dim : (j+1)*dim]
					v := variation(ti, tj, floats.Dot(zi, z[j*cols:(j+1)*cols]), lr)
					floats.AddScaled(di, -v*invN, tj)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		if discarded := applyDeltas(target, deltas); discarded > 0 {
			DiscardedUpdates.WithLabelValues(d.config.ModelName).Add(float64(discarded))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mat.NewDense(n, dim, target), nil
}
