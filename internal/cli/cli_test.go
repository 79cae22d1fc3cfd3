package cli

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/objones25/dimred/internal/testutil"
	"github.com/objones25/dimred/pkg/datasets"
	"github.com/objones25/dimred/pkg/reduction"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// isolate points HOME, the working directory and the run history at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("DIMRED_STORE_PATH", filepath.Join(dir, "history", "runs.db"))

	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	testutil.SetLogLevel(t, zerolog.GlobalLevel())
	return dir
}

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := New()
	c.SetOutput(&out, &errOut)
	c.SetArgs(args)
	code = c.Execute()
	return code, out.String(), errOut.String()
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitValidation, ExitCode(reduction.ErrInvalidConfig))
	assert.Equal(t, ExitValidation, ExitCode(errors.Join(errors.New("ctx"), datasets.ErrUnknownDataset)))
	assert.Equal(t, ExitInternal, ExitCode(errors.New("disk full")))
}

func TestVersion(t *testing.T) {
	isolate(t)
	code, out, _ := execute(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "dimred version "+Version)
}

func TestDatasets(t *testing.T) {
	isolate(t)
	code, out, _ := execute(t, "datasets")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `iris\s+150\s+4\s+setosa,versicolor,virginica`, out)
}

func TestFitIris(t *testing.T) {
	dir := isolate(t)
	output := filepath.Join(dir, "embedding.csv")
	plotPath := filepath.Join(dir, "embedding.png")

	code, _, stderr := execute(t, "fit", "--quiet",
		"--iterations", "2", "--learning-rate", "1", "--depth", "4",
		"--output", output, "--plot", plotPath)
	require.Equal(t, ExitSuccess, code, stderr)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 151)
	assert.Equal(t, []string{"c0", "c1", "label"}, records[0])
	assert.Equal(t, "setosa", records[1][2])
	assert.Equal(t, "virginica", records[150][2])

	info, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	code, out, _ := execute(t, "runs")
	require.Equal(t, ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "barnes-hut")
	assert.Contains(t, lines[1], "150x4→2")

	id := strings.Fields(lines[1])[0]
	code, out, _ = execute(t, "runs", "show", id)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Barnes-Hut Sigmoid Decomposition")
	assert.Regexp(t, `Depth:\s+4`, out)
}

func TestFitStdout(t *testing.T) {
	isolate(t)
	input := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(input, []byte("a,b,c\n1,2,3\n4,5,7\n2,2,1\n0,1,5\n"), 0o644))

	code, out, stderr := execute(t, "fit", "-q", "--no-cache", "--input", input, "--algorithm", "pca", "--dimensions", "1")
	require.Equal(t, ExitSuccess, code, stderr)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"c0"}, records[0])
}

func TestFitEnvConfig(t *testing.T) {
	isolate(t)
	t.Setenv("DIMRED_MODEL_ALGORITHM", "sigmoid")
	t.Setenv("DIMRED_MODEL_ITERATIONS", "1")
	t.Setenv("DIMRED_CACHE_BACKEND", "none")

	code, out, stderr := execute(t, "fit", "-q")
	require.Equal(t, ExitSuccess, code, stderr)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 151)

	code, out, _ = execute(t, "runs", "-n", "1")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "sigmoid")
}

func TestFitCacheAcrossInvocations(t *testing.T) {
	isolate(t)
	args := []string{"fit", "--log-level", "error", "--iterations", "1", "--output", "embedding.csv"}

	// The default configuration has no cache, so nothing carries over
	for range 2 {
		code, _, stderr := execute(t, args...)
		require.Equal(t, ExitSuccess, code, stderr)
		assert.Contains(t, stderr, "cache hit: false")
	}

	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()
	t.Setenv("DIMRED_CACHE_BACKEND", "redis")
	t.Setenv("DIMRED_CACHE_ADDR", s.Addr())

	code, _, stderr := execute(t, args...)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "cache hit: false")

	code, _, stderr = execute(t, args...)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "cache hit: true")
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown algorithm", []string{"fit", "--algorithm", "tsne"}, ExitValidation},
		{"unknown dataset", []string{"fit", "--dataset", "mnist"}, ExitValidation},
		{"bad learning rate", []string{"fit", "--learning-rate", "0"}, ExitValidation},
		{"barnes-hut in 3-D", []string{"fit", "--dimensions", "3"}, ExitValidation},
		{"unknown flag", []string{"fit", "--speed", "fast"}, ExitValidation},
		{"missing input", []string{"fit", "--input", "missing.csv"}, ExitInternal},
		{"negative label column", []string{"fit", "--input", "points.csv", "--label-column", "-2"}, ExitValidation},
		{"bad run id", []string{"runs", "show", "nope"}, ExitValidation},
		{"unknown run", []string{"runs", "show", "7d444840-9dc0-11d1-b245-5ffdce74fad2"}, ExitValidation},
		{"plot format", []string{"fit", "--iterations", "1", "--plot", "out.bmp"}, ExitValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			require.NoError(t, os.WriteFile("points.csv", []byte("1,2,3\n4,5,6\n"), 0o644))
			code, _, stderr := execute(t, append(tt.args, "-q")...)
			assert.Equal(t, tt.want, code, stderr)
			assert.Contains(t, stderr, "dimred: ")
		})
	}
}

func TestConfigCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  depth: 6\n"), 0o644))

	code, out, stderr := execute(t, "config", "--config", path)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, out, "depth: 6")
	assert.Contains(t, out, "learning_rate: 0.01")
	assert.Contains(t, out, "backend: none")

	code, _, _ = execute(t, "config", "--log-level", "loud")
	assert.Equal(t, ExitValidation, code)
}

func TestWriteEmbeddingCSV(t *testing.T) {
	var buf bytes.Buffer
	embedding := mat.NewDense(2, 2, []float64{0.5, -1, 2, 3.25})
	ds := &datasets.Dataset{Target: []int{1, 5}, TargetNames: []string{"a", "b"}}

	require.NoError(t, writeEmbeddingCSV(&buf, embedding, ds))
	assert.Equal(t, "c0,c1,label\n0.5,-1,b\n2,3.25,5\n", buf.String())

	buf.Reset()
	require.NoError(t, writeEmbeddingCSV(&buf, embedding, nil))
	assert.Equal(t, "c0,c1\n0.5,-1\n2,3.25\n", buf.String())
}
