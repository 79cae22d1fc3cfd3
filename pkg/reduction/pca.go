package reduction

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const pcaModelName = "PCA Decomposition"

// PCA performs principal component analysis on the rows of x. It returns the
// centred data projected on the k leading components and the k×cols matrix
// whose rows are those components.
func PCA(x mat.Matrix, k int) (*mat.Dense, *mat.Dense, error) {
	rows, cols := dims(x)
	if rows == 0 || cols == 0 {
		return nil, nil, ErrEmptyInput
	}
	if rows < 2 {
		return nil, nil, fmt.Errorf("%w: PCA needs at least 2 rows, got %d", ErrTooFewSamples, rows)
	}
	if k < 1 || k > cols {
		return nil, nil, fmt.Errorf("%w: %d components requested from %d columns", ErrInvalidTargetDimension, k, cols)
	}

	// Center the data
	means, err := ColumnMeans(x)
	if err != nil {
		return nil, nil, err
	}
	centered := mat.DenseCopyOf(x)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, centered.At(i, j)-means[j])
		}
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, centered, nil)

	var eigen mat.EigenSym
	if ok := eigen.Factorize(&cov, true); !ok {
		return nil, nil, ErrEigenDecomposition
	}
	eigenValues := eigen.Values(nil)
	var eigenVectors mat.Dense
	eigen.VectorsTo(&eigenVectors)

	// Sort eigenvalues and eigenvectors in descending order
	indices := make([]int, len(eigenValues))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return eigenValues[indices[i]] > eigenValues[indices[j]]
	})

	components := mat.NewDense(k, cols, nil)
	col := make([]float64, cols)
	for i := 0; i < k; i++ {
		mat.Col(col, indices[i], &eigenVectors)
		orientSign(col)
		components.SetRow(i, col)
	}

	var reduced mat.Dense
	reduced.Mul(centered, components.T())
	return &reduced, components, nil
}

// orientSign flips v so that its largest-magnitude entry is positive, making
// component signs reproducible across LAPACK implementations.
func orientSign(v []float64) {
	var best float64
	for _, x := range v {
		if abs(x) > abs(best) {
			best = x
		}
	}
	if best < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Project projects a centred vector onto the rows of components
func Project(vector []float64, components mat.Matrix) ([]float64, error) {
	k, cols := components.Dims()
	if len(vector) != cols {
		return nil, fmt.Errorf("%w: vector has %d values, components have %d", ErrDimensionMismatch, len(vector), cols)
	}
	out := mat.NewVecDense(k, nil)
	out.MulVec(components, mat.NewVecDense(cols, vector))
	return out.RawVector().Data, nil
}

// Reconstruct maps a projected vector back to the centred original space
func Reconstruct(projected []float64, components mat.Matrix) ([]float64, error) {
	k, cols := components.Dims()
	if len(projected) != k {
		return nil, fmt.Errorf("%w: projection has %d values, want %d", ErrDimensionMismatch, len(projected), k)
	}
	out := mat.NewVecDense(cols, nil)
	out.MulVec(components.T(), mat.NewVecDense(k, projected))
	return out.RawVector().Data, nil
}

// PCADecomposition exposes PCA through the Reducer interface
type PCADecomposition struct {
	config Config
}

// NewPCADecomposition creates a PCA reducer. Only ModelName is used from cfg.
func NewPCADecomposition(cfg Config) (*PCADecomposition, error) {
	cfg = cfg.withDefaults(pcaModelName)
	if cfg.ModelName == "" {
		return nil, ErrEmptyModelName
	}
	return &PCADecomposition{config: cfg}, nil
}

// Name implements Reducer
func (d *PCADecomposition) Name() string {
	return d.config.ModelName
}

// FitTransform implements Reducer
func (d *PCADecomposition) FitTransform(ctx context.Context, x mat.Matrix, targetDimension int) (*mat.Dense, error) {
	if _, _, err := validateInput(x, targetDimension); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		FitDuration.WithLabelValues(d.config.ModelName).Observe(time.Since(start).Seconds())
	}()

	reduced, _, err := PCA(x, targetDimension)
	return reduced, err
}
