package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	// KeyPrefix is the prefix for all embedding cache keys
	KeyPrefix = "dimred"
)

// KeyGenerator derives cache keys from the inputs of a fit
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a key generator. An empty prefix uses KeyPrefix.
func NewKeyGenerator(prefix string) *KeyGenerator {
	if prefix == "" {
		prefix = KeyPrefix
	}
	return &KeyGenerator{prefix: prefix}
}

// GenerateKey hashes the parameters, the target dimension and every value of x.
// params should be a canonical rendering of every setting that changes the result.
//
// Format: prefix:algorithm:sha256
func (g *KeyGenerator) GenerateKey(algorithm, params string, targetDimension int, x mat.Matrix) string {
	hasher := sha256.New()
	fmt.Fprintf(hasher, "%s\x00%d\x00", params, targetDimension)

	r, c := x.Dims()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(r))
	hasher.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(c))
	hasher.Write(buf[:])
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x.At(i, j)))
			hasher.Write(buf[:])
		}
	}

	return fmt.Sprintf("%s:%s:%s", g.prefix, strings.ToLower(algorithm), hex.EncodeToString(hasher.Sum(nil)))
}
