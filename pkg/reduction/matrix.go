package reduction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FromFlat builds a row-major matrix from a flat slice holding rows of the given dimension.
func FromFlat(data []float64, dimension int) (*mat.Dense, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrDimensionMismatch, dimension)
	}
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if len(data)%dimension != 0 {
		return nil, fmt.Errorf("%w: length %d, dimension %d", ErrDimensionMismatch, len(data), dimension)
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return mat.NewDense(len(data)/dimension, dimension, buf), nil
}

// FromFloat32 converts float32 rows into a dense matrix
func FromFloat32(rows [][]float32) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyInput
	}
	cols := len(rows[0])
	data := make([]float64, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), cols)
		}
		for j, v := range row {
			data[i*cols+j] = float64(v)
		}
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// ToFloat32 converts a matrix into float32 rows
func ToFloat32(m mat.Matrix) [][]float32 {
	r, c := m.Dims()
	out := make([][]float32, r)
	for i := range out {
		out[i] = make([]float32, c)
		for j := range out[i] {
			out[i][j] = float32(m.At(i, j))
		}
	}
	return out
}

// ColumnSums returns the sum of every column
func ColumnSums(m mat.Matrix) ([]float64, error) {
	return perColumn(m, func(col []float64) float64 { return floats.Sum(col) })
}

// ColumnMeans returns the mean of every column
func ColumnMeans(m mat.Matrix) ([]float64, error) {
	return perColumn(m, func(col []float64) float64 { return stat.Mean(col, nil) })
}

// ColumnVariances returns the population variance of every column
func ColumnVariances(m mat.Matrix) ([]float64, error) {
	return perColumn(m, func(col []float64) float64 {
		_, variance := stat.PopMeanVariance(col, nil)
		return variance
	})
}

// ColumnStdDevs returns the population standard deviation of every column
func ColumnStdDevs(m mat.Matrix) ([]float64, error) {
	return perColumn(m, func(col []float64) float64 {
		_, std := stat.PopMeanStdDev(col, nil)
		return std
	})
}

// ColumnMinMax returns the minimum and maximum of every column
func ColumnMinMax(m mat.Matrix) (mins, maxs []float64, err error) {
	if mins, err = perColumn(m, floats.Min); err != nil {
		return nil, nil, err
	}
	maxs, _ = perColumn(m, floats.Max)
	return mins, maxs, nil
}

func perColumn(m mat.Matrix, fn func([]float64) float64) ([]float64, error) {
	rows, cols := dims(m)
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		out[j] = fn(col)
	}
	return out, nil
}

// dims tolerates the zero-value Dense, whose Dims is (0, 0).
func dims(m mat.Matrix) (int, int) {
	if m == nil {
		return 0, 0
	}
	if d, ok := m.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return 0, 0
	}
	return m.Dims()
}

// validateInput checks the common preconditions of every FitTransform.
func validateInput(x mat.Matrix, targetDimension int) (rows, cols int, err error) {
	rows, cols = dims(x)
	if rows == 0 || cols == 0 {
		return 0, 0, ErrEmptyInput
	}
	if targetDimension < 1 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidTargetDimension, targetDimension)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, fmt.Errorf("%w: value %v at (%d, %d)", ErrNonFiniteInput, v, i, j)
			}
		}
	}
	return rows, cols, nil
}

// standardize returns the z-scores of x as a flat row-major slice. Columns with
// zero spread are centred only.
func standardize(x mat.Matrix) ([]float64, error) {
	means, err := ColumnMeans(x)
	if err != nil {
		return nil, err
	}
	stds, err := ColumnStdDevs(x)
	if err != nil {
		return nil, err
	}
	rows, cols := x.Dims()
	z := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j) - means[j]
			if stds[j] > 0 {
				v /= stds[j]
			}
			z[i*cols+j] = v
		}
	}
	return z, nil
}
