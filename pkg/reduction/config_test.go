package reduction

import (
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	want := Config{
		RandomState:  42,
		Verbose:      true,
		Iterations:   100,
		LearningRate: 0.01,
		Init:         InitRandom,
		Depth:        3,
		NumWorkers:   runtime.NumCPU(),
	}
	if diff := cmp.Diff(want, DefaultConfig()); diff != "" {
		t.Errorf("DefaultConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig().withDefaults("test")
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty name", func(c *Config) { c.ModelName = "" }, ErrEmptyModelName},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }, ErrInvalidConfig},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }, ErrInvalidConfig},
		{"unknown init", func(c *Config) { c.Init = "spectral" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Iterations: 2, LearningRate: 1, Depth: 4}.withDefaults(barnesHutModelName)

	assert.Equal(t, barnesHutModelName, cfg.ModelName)
	assert.Equal(t, InitRandom, cfg.Init)
	assert.Equal(t, runtime.NumCPU(), cfg.NumWorkers)

	named := Config{ModelName: "custom"}.withDefaults(barnesHutModelName)
	assert.Equal(t, "custom", named.ModelName)
}

func TestValidateDepth(t *testing.T) {
	cfg := DefaultConfig()
	for _, depth := range []int{1, 4, MaxDepth} {
		cfg.Depth = depth
		assert.NoError(t, cfg.validateDepth(), "depth %d", depth)
	}
	for _, depth := range []int{0, -1, MaxDepth + 1} {
		cfg.Depth = depth
		assert.ErrorIs(t, cfg.validateDepth(), ErrInvalidConfig, "depth %d", depth)
	}
}
