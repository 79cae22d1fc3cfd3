package reduction

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// variation is the learning-rate scaled gap between the embedding similarity
// and the original similarity of a pair.
func variation(target, partner []float64, originalSimilarity, learningRate float64) float64 {
	return learningRate * (sigmoid(floats.Dot(target, partner)) - sigmoid(originalSimilarity))
}

// splitmix64 is the SplitMix64 finaliser, used as a stateless hash for seeding.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// unitFloat maps a 64-bit value onto [0, 1) using its top 53 bits.
func unitFloat(x uint64) float64 {
	return float64(x>>11) / (1 << 53)
}

// randomInit fills dst with values drawn uniformly from [-1, 1). The seed is
// hashed first so that a zero random state still yields distinct values.
func randomInit(dst []float64, randomState uint64) {
	seed := splitmix64(randomState)
	for i := range dst {
		dst[i] = 2*unitFloat(splitmix64(seed+uint64(i))) - 1
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
