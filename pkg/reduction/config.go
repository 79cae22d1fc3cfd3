package reduction

import (
	"fmt"
	"math"
	"runtime"
)

// MaxDepth bounds the Barnes-Hut grid depth. A grid of depth d holds (4^(d+1)-1)/3 cells.
const MaxDepth = 10

// InitMethod selects how the embedding is initialised before the first iteration.
type InitMethod string

const (
	InitRandom InitMethod = "random"
	InitPCA    InitMethod = "pca"
)

// Config holds reducer configuration
type Config struct {
	ModelName   string // Display name used in logs and metrics
	RandomState uint64 // Seed for initialisation and sampling
	Verbose     bool   // Log per-iteration progress

	// Iterative reducers
	Iterations   int        // Number of optimisation passes over the data
	LearningRate float64    // Step size applied to every variation
	Init         InitMethod // Embedding initialisation

	// Barnes-Hut
	Depth int // Number of grid layers below the root

	NumWorkers int // Number of worker goroutines per iteration
}

// DefaultConfig returns default reducer configuration
func DefaultConfig() Config {
	return Config{
		RandomState:  42,
		Verbose:      true,
		Iterations:   100,
		LearningRate: 0.01,
		Init:         InitRandom,
		Depth:        3,
		NumWorkers:   runtime.NumCPU(),
	}
}

// withDefaults fills the zero-valued fields that have no meaningful zero.
func (c Config) withDefaults(modelName string) Config {
	if c.ModelName == "" {
		c.ModelName = modelName
	}
	if c.Init == "" {
		c.Init = InitRandom
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = runtime.NumCPU()
	}
	return c
}

// Validate checks the configuration for values no reducer can run with.
func (c Config) Validate() error {
	if c.ModelName == "" {
		return ErrEmptyModelName
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations must be non-negative, got %d", ErrInvalidConfig, c.Iterations)
	}
	if math.IsNaN(c.LearningRate) || math.IsInf(c.LearningRate, 0) || c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive and finite, got %v", ErrInvalidConfig, c.LearningRate)
	}
	switch c.Init {
	case InitRandom, InitPCA:
	default:
		return fmt.Errorf("%w: unknown init method %q", ErrInvalidConfig, c.Init)
	}
	return nil
}

func (c Config) validateDepth() error {
	if c.Depth < 1 || c.Depth > MaxDepth {
		return fmt.Errorf("%w: depth must be in [1, %d], got %d", ErrInvalidConfig, MaxDepth, c.Depth)
	}
	return nil
}
