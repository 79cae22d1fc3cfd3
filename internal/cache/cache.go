// Package cache stores fitted embeddings keyed by their inputs so repeated
// runs with the same data and parameters skip the fit.
package cache

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Cache defines the interface for embedding caches
type Cache interface {
	// Get retrieves an entry. A miss returns nil and no error.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores an entry
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes entries
	Delete(ctx context.Context, keys ...string) error

	// Clear removes all entries
	Clear(ctx context.Context) error

	// Close releases the backend
	Close() error

	// Health checks if the backend is reachable
	Health(ctx context.Context) error
}

// Entry is a cached embedding
type Entry struct {
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Data      []float64 `json:"data"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry copies an embedding into a cache entry
func NewEntry(model string, embedding *mat.Dense) *Entry {
	r, c := embedding.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, embedding.RawRowView(i)...)
	}
	return &Entry{
		Rows:      r,
		Cols:      c,
		Data:      data,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
}

// Dense returns the embedding held by the entry
func (e *Entry) Dense() (*mat.Dense, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	data := make([]float64, len(e.Data))
	copy(data, e.Data)
	return mat.NewDense(e.Rows, e.Cols, data), nil
}

func (e *Entry) validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidValue)
	}
	if e.Rows <= 0 || e.Cols <= 0 || len(e.Data) != e.Rows*e.Cols {
		return fmt.Errorf("%w: %dx%d entry holds %d values", ErrInvalidValue, e.Rows, e.Cols, len(e.Data))
	}
	return nil
}

// Backend names a cache implementation
type Backend string

const (
	BackendNone   Backend = "none"
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config holds cache configuration
type Config struct {
	Backend              Backend       `mapstructure:"backend" yaml:"backend"`
	Prefix               string        `mapstructure:"prefix" yaml:"prefix"`
	MaxEntries           int           `mapstructure:"max_entries" yaml:"max_entries"` // memory backend
	Addr                 string        `mapstructure:"addr" yaml:"addr"`               // redis backend
	Password             string        `mapstructure:"password" yaml:"password"`
	DB                   int           `mapstructure:"db" yaml:"db"`
	TTL                  time.Duration `mapstructure:"ttl" yaml:"ttl"`
	CompressionThreshold int           `mapstructure:"compression_threshold" yaml:"compression_threshold"`
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		Backend:              BackendMemory,
		Prefix:               KeyPrefix,
		MaxEntries:           128,
		Addr:                 "localhost:6379",
		TTL:                  defaultTTL,
		CompressionThreshold: defaultCompressionThreshold,
	}
}

// New creates the cache selected by cfg.Backend. BackendNone returns a nil Cache.
func New(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendNone, "":
		return nil, nil
	case BackendMemory:
		c, err := NewMemoryCache(cfg.MaxEntries)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
