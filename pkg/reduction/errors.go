package reduction

import "errors"

var (
	// ErrEmptyModelName is returned when a reducer is configured without a name
	ErrEmptyModelName = errors.New("model name must not be empty")

	// ErrInvalidConfig is returned when a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid reducer configuration")

	// ErrEmptyInput is returned when the input matrix has no rows or columns
	ErrEmptyInput = errors.New("input matrix must not be empty")

	// ErrTooFewSamples is returned when a reducer needs more rows than provided
	ErrTooFewSamples = errors.New("not enough samples")

	// ErrNonFiniteInput is returned when the input matrix contains NaN or Inf
	ErrNonFiniteInput = errors.New("input matrix must contain only finite values")

	// ErrDimensionMismatch is returned when a flat slice does not divide into rows
	ErrDimensionMismatch = errors.New("data length is not compatible with the dimension")

	// ErrInvalidTargetDimension is returned when the requested output width is unusable
	ErrInvalidTargetDimension = errors.New("invalid target dimension")

	// ErrUnsupportedTargetDimension is returned by reducers restricted to 2-D embeddings
	ErrUnsupportedTargetDimension = errors.New("only a target dimension of 2 is supported")

	// ErrUnknownAlgorithm is returned for an unrecognised algorithm name
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrEigenDecomposition is returned when the covariance matrix cannot be factorised
	ErrEigenDecomposition = errors.New("eigendecomposition failed")
)
