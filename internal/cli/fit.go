package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/objones25/dimred/internal/cache"
	"github.com/objones25/dimred/internal/plot"
	"github.com/objones25/dimred/internal/runner"
	"github.com/objones25/dimred/internal/runstore"
	"github.com/objones25/dimred/pkg/datasets"
	"github.com/objones25/dimred/pkg/reduction"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

type fitOptions struct {
	dataset     string
	input       string
	header      bool
	labelColumn int
	output      string
	plot        string
	noCache     bool
}

func (c *CLI) newFitCmd() *cobra.Command {
	var opts fitOptions
	defaults := reduction.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit an embedding of a dataset",
		Long: `Fit an embedding of a built-in dataset or a numeric CSV file and write it as CSV.

Embeddings are cached only when cache.backend is set. The redis backend is the
only one that survives between invocations; memory lasts for a single process.

Examples:
  dimred fit --dataset iris --iterations 2 --learning-rate 1 --depth 4
  dimred fit --input points.csv --label-column 4 --output embedding.csv --plot embedding.png`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFit(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataset, "dataset", "iris", "built-in dataset name")
	f.StringVar(&opts.input, "input", "", "numeric CSV file to embed instead of a built-in dataset")
	f.BoolVar(&opts.header, "header", true, "the input CSV starts with a header row")
	f.IntVar(&opts.labelColumn, "label-column", datasets.NoLabel, "input CSV column holding class labels (-1 for none)")
	f.StringVar(&opts.output, "output", "", "write the embedding CSV to this file instead of stdout")
	f.StringVar(&opts.plot, "plot", "", "save a scatter plot of a 2-D embedding (.png, .svg, .pdf)")
	f.BoolVar(&opts.noCache, "no-cache", false, "skip the embedding cache")

	f.String("algorithm", string(reduction.AlgorithmBarnesHut), "reducer: barnes-hut, sigmoid, sampled or pca")
	f.Int("dimensions", 2, "embedding dimensions")
	f.Int("iterations", defaults.Iterations, "optimisation iterations")
	f.Float64("learning-rate", defaults.LearningRate, "learning rate")
	f.Int("depth", defaults.Depth, "Barnes-Hut grid depth")
	f.Uint64("random-state", defaults.RandomState, "random seed")
	f.String("init", string(defaults.Init), "initialisation: random or pca")
	f.Int("workers", defaults.NumWorkers, "worker goroutines per iteration")

	return cmd
}

func (c *CLI) runFit(ctx context.Context, opts fitOptions) error {
	ds, err := c.loadDataset(opts)
	if err != nil {
		return err
	}
	algo, cfg, err := c.cfg.Model.Reduction()
	if err != nil {
		return err
	}

	var embeddings cache.Cache
	if !opts.noCache {
		embeddings, err = cache.New(c.cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Str("backend", string(c.cfg.Cache.Backend)).Msg("Embedding cache unavailable")
			embeddings = nil
		}
		if embeddings != nil {
			defer embeddings.Close()
		}
	}

	store := c.openStore(ctx)
	if store != nil {
		defer store.Close()
	}

	r := runner.New(embeddings, store, cache.NewKeyGenerator(c.cfg.Cache.Prefix))
	res, err := r.Run(ctx, runner.Request{
		Dataset:         ds.Name,
		Data:            ds.Data,
		Algorithm:       algo,
		Config:          cfg,
		TargetDimension: c.cfg.Model.Dimensions,
	})
	if err != nil {
		return err
	}

	if err := c.writeEmbedding(opts.output, res.Embedding, ds); err != nil {
		return err
	}

	if opts.plot != "" {
		err := plot.Save(res.Embedding, opts.plot, plot.Options{
			Title:      fmt.Sprintf("%s: %s", ds.Name, res.Run.Model),
			Labels:     ds.Target,
			ClassNames: ds.TargetNames,
		})
		if err != nil {
			return err
		}
		c.printf("Saved plot to %s\n", opts.plot)
	}

	rows, cols := res.Embedding.Dims()
	c.printf("Fitted %dx%d embedding of %s with %s in %s (run %s, cache hit: %t)\n",
		rows, cols, ds.Name, res.Run.Model, res.Run.Duration, res.Run.ID, res.CacheHit)
	return nil
}

func (c *CLI) loadDataset(opts fitOptions) (*datasets.Dataset, error) {
	if opts.input == "" {
		return datasets.Load(opts.dataset)
	}
	csvOpts := datasets.DefaultCSVOptions()
	csvOpts.Header = opts.header
	csvOpts.LabelColumn = opts.labelColumn
	return datasets.LoadCSVFile(opts.input, csvOpts)
}

// openStore opens the run history. Failures are logged and disable recording.
func (c *CLI) openStore(ctx context.Context) *runstore.Store {
	if !c.cfg.Store.Enabled || c.cfg.Store.Path == "" {
		return nil
	}
	if dir := filepath.Dir(c.cfg.Store.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("path", c.cfg.Store.Path).Msg("Run history unavailable")
			return nil
		}
	}
	store, err := runstore.Open(ctx, c.cfg.Store.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", c.cfg.Store.Path).Msg("Run history unavailable")
		return nil
	}
	return store
}

func (c *CLI) writeEmbedding(path string, embedding *mat.Dense, ds *datasets.Dataset) (err error) {
	w := c.out
	if path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		w = f
	}
	return writeEmbeddingCSV(w, embedding, ds)
}

// writeEmbeddingCSV writes one row per sample with columns c0..cN and, when
// the dataset is labelled, the class name.
func writeEmbeddingCSV(w io.Writer, embedding *mat.Dense, ds *datasets.Dataset) error {
	rows, cols := embedding.Dims()
	labelled := ds != nil && len(ds.Target) == rows

	cw := csv.NewWriter(w)
	header := make([]string, 0, cols+1)
	for j := 0; j < cols; j++ {
		header = append(header, "c"+strconv.Itoa(j))
	}
	if labelled {
		header = append(header, "label")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write embedding: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(embedding.At(i, j), 'g', -1, 64)
		}
		if labelled {
			record[cols] = className(ds, ds.Target[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write embedding: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write embedding: %w", err)
	}
	return nil
}

func className(ds *datasets.Dataset, class int) string {
	if class >= 0 && class < len(ds.TargetNames) {
		return ds.TargetNames[class]
	}
	return strconv.Itoa(class)
}
