// Package reduction embeds numeric tables into a low-dimensional space.
//
// The iterative reducers fit an embedding t by moving, for every pair of
// samples i and j, sigmoid(<t_i, t_j>) towards sigmoid(<z_i, z_j>) where z is
// the z-score normalised input. BarnesHutSigmoidDecomposition approximates
// distant pairs through a quadtree over the embedding, SigmoidDecomposition
// visits every pair and SampledSigmoidDecomposition draws one partner per
// sample per iteration. PCADecomposition is the deterministic linear baseline.
package reduction

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Reducer fits an embedding of X with targetDimension columns.
type Reducer interface {
	// Name returns the display name of the model
	Name() string

	// FitTransform fits the model to X and returns the embedding of its rows
	FitTransform(ctx context.Context, x mat.Matrix, targetDimension int) (*mat.Dense, error)
}

// Algorithm names a reducer implementation
type Algorithm string

const (
	AlgorithmBarnesHut Algorithm = "barnes-hut"
	AlgorithmSigmoid   Algorithm = "sigmoid"
	AlgorithmSampled   Algorithm = "sampled"
	AlgorithmPCA       Algorithm = "pca"
)

// Algorithms lists every supported algorithm
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmBarnesHut, AlgorithmSigmoid, AlgorithmSampled, AlgorithmPCA}
}

// ParseAlgorithm validates an algorithm name
func ParseAlgorithm(name string) (Algorithm, error) {
	algo := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	for _, a := range Algorithms() {
		if a == algo {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// New builds the reducer for algo
func New(algo Algorithm, cfg Config) (Reducer, error) {
	switch algo {
	case AlgorithmBarnesHut:
		return NewBarnesHutSigmoidDecomposition(cfg)
	case AlgorithmSigmoid:
		return NewSigmoidDecomposition(cfg)
	case AlgorithmSampled:
		return NewSampledSigmoidDecomposition(cfg)
	case AlgorithmPCA:
		return NewPCADecomposition(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algo)
	}
}

// initialEmbedding returns the starting embedding as n rows of width dim.
func initialEmbedding(x mat.Matrix, n, dim int, cfg Config) ([]float64, error) {
	target := make([]float64, n*dim)
	if cfg.Init != InitPCA {
		randomInit(target, cfg.RandomState)
		return target, nil
	}

	reduced, _, err := PCA(x, dim)
	if err != nil {
		return nil, fmt.Errorf("failed to compute PCA initialisation: %w", err)
	}
	var scale float64
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			v := reduced.At(i, j)
			target[i*dim+j] = v
			if v < 0 {
				v = -v
			}
			if v > scale {
				scale = v
			}
		}
	}
	if scale > 0 {
		for i := range target {
			target[i] /= scale
		}
	}
	return target, nil
}

// applyDeltas adds delta to target, leaving coordinates whose result is not
// finite unchanged. It returns the number of discarded coordinates.
func applyDeltas(target, delta []float64) int {
	var discarded int
	for i, d := range delta {
		next := target[i] + d
		if !finite(next) {
			discarded++
			continue
		}
		target[i] = next
	}
	return discarded
}
