// Package config loads the dimred CLI configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/objones25/dimred/internal/cache"
	"github.com/objones25/dimred/pkg/reduction"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DIMRED_MODEL_ITERATIONS
const EnvPrefix = "DIMRED"

// ErrInvalid is returned when a loaded configuration fails validation
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration.
type Config struct {
	Model   ModelConfig   `mapstructure:"model" yaml:"model"`
	Cache   cache.Config  `mapstructure:"cache" yaml:"cache"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ModelConfig selects the reducer and its parameters.
type ModelConfig struct {
	Algorithm    string  `mapstructure:"algorithm" yaml:"algorithm"`
	Dimensions   int     `mapstructure:"dimensions" yaml:"dimensions"`
	Iterations   int     `mapstructure:"iterations" yaml:"iterations"`
	LearningRate float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	Depth        int     `mapstructure:"depth" yaml:"depth"`
	RandomState  uint64  `mapstructure:"random_state" yaml:"random_state"`
	Init         string  `mapstructure:"init" yaml:"init"`
	Workers      int     `mapstructure:"workers" yaml:"workers"`
	Verbose      bool    `mapstructure:"verbose" yaml:"verbose"`
}

// StoreConfig locates the run history database.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a configuration with default values. Each CLI
// invocation is its own process, so the cache is off unless a redis backend
// is configured.
func DefaultConfig() *Config {
	model := reduction.DefaultConfig()
	embeddingCache := cache.DefaultConfig()
	embeddingCache.Backend = cache.BackendNone
	return &Config{
		Model: ModelConfig{
			Algorithm:    string(reduction.AlgorithmBarnesHut),
			Dimensions:   2,
			Iterations:   model.Iterations,
			LearningRate: model.LearningRate,
			Depth:        model.Depth,
			RandomState:  model.RandomState,
			Init:         string(model.Init),
			Workers:      model.NumWorkers,
			Verbose:      model.Verbose,
		},
		Cache: embeddingCache,
		Store: StoreConfig{
			Enabled: true,
			Path:    defaultStorePath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dimred-runs.db"
	}
	return filepath.Join(home, ".dimred", "runs.db")
}

// Load reads configuration into v from configPath, or from dimred.yaml in
// $HOME/.dimred or the working directory, then applies DIMRED_ environment
// overrides. Flags bound to v before the call take precedence over both.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dimred"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("dimred")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("model.algorithm", d.Model.Algorithm)
	v.SetDefault("model.dimensions", d.Model.Dimensions)
	v.SetDefault("model.iterations", d.Model.Iterations)
	v.SetDefault("model.learning_rate", d.Model.LearningRate)
	v.SetDefault("model.depth", d.Model.Depth)
	v.SetDefault("model.random_state", d.Model.RandomState)
	v.SetDefault("model.init", d.Model.Init)
	v.SetDefault("model.workers", d.Model.Workers)
	v.SetDefault("model.verbose", d.Model.Verbose)
	v.SetDefault("cache.backend", string(d.Cache.Backend))
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("cache.addr", d.Cache.Addr)
	v.SetDefault("cache.password", d.Cache.Password)
	v.SetDefault("cache.db", d.Cache.DB)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.compression_threshold", d.Cache.CompressionThreshold)
	v.SetDefault("store.enabled", d.Store.Enabled)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks the values that cannot be validated by the reducer itself.
func (c *Config) Validate() error {
	if _, err := reduction.ParseAlgorithm(c.Model.Algorithm); err != nil {
		return fmt.Errorf("%w: model.algorithm: %v", ErrInvalid, err)
	}
	if c.Model.Dimensions < 1 {
		return fmt.Errorf("%w: model.dimensions must be positive, got %d", ErrInvalid, c.Model.Dimensions)
	}
	switch c.Cache.Backend {
	case cache.BackendNone, cache.BackendMemory, cache.BackendRedis:
	default:
		return fmt.Errorf("%w: cache.backend %q", ErrInvalid, c.Cache.Backend)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

// Reduction returns the reducer configuration and algorithm
func (m ModelConfig) Reduction() (reduction.Algorithm, reduction.Config, error) {
	algo, err := reduction.ParseAlgorithm(m.Algorithm)
	if err != nil {
		return "", reduction.Config{}, err
	}
	return algo, reduction.Config{
		RandomState:  m.RandomState,
		Verbose:      m.Verbose,
		Iterations:   m.Iterations,
		LearningRate: m.LearningRate,
		Init:         reduction.InitMethod(m.Init),
		Depth:        m.Depth,
		NumWorkers:   m.Workers,
	}, nil
}
