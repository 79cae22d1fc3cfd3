// Package cli provides the dimred command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/objones25/dimred/internal/config"
	"github.com/objones25/dimred/internal/plot"
	"github.com/objones25/dimred/internal/runstore"
	"github.com/objones25/dimred/pkg/datasets"
	"github.com/objones25/dimred/pkg/reduction"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitInternal   = 4
)

// errUsage marks command-line mistakes
var errUsage = errors.New("usage error")

// validationErrors are reported with ExitValidation
var validationErrors = []error{
	errUsage,
	config.ErrInvalid,
	datasets.ErrUnknownDataset,
	datasets.ErrNoData,
	datasets.ErrMalformedRecord,
	datasets.ErrInvalidOptions,
	reduction.ErrEmptyModelName,
	reduction.ErrInvalidConfig,
	reduction.ErrEmptyInput,
	reduction.ErrTooFewSamples,
	reduction.ErrNonFiniteInput,
	reduction.ErrDimensionMismatch,
	reduction.ErrInvalidTargetDimension,
	reduction.ErrUnsupportedTargetDimension,
	reduction.ErrUnknownAlgorithm,
	runstore.ErrRunNotFound,
	plot.ErrNotTwoDimensional,
	plot.ErrUnsupportedFormat,
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return ExitValidation
		}
	}
	return ExitInternal
}

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	viper   *viper.Viper
	cfg     *config.Config

	out    io.Writer
	errOut io.Writer

	// Global flags
	configPath string
	quiet      bool
}

// New creates a new CLI instance.
func New() *CLI {
	c := &CLI{
		viper:  viper.New(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	c.rootCmd = c.newRootCmd()
	return c
}

// SetOutput redirects command output and diagnostics
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.out = out
	c.errOut = errOut
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

// SetArgs overrides the command-line arguments
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// Root returns the root command
func (c *CLI) Root() *cobra.Command {
	return c.rootCmd
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute() int {
	return c.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx and returns the process exit code.
func (c *CLI) ExecuteContext(ctx context.Context) int {
	err := c.rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(c.errOut, "dimred: %v\n", err)
	}
	return ExitCode(err)
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dimred",
		Short: "Embed numeric tables in a low-dimensional space",
		Long: `dimred fits sigmoid decompositions of numeric tables.

The default Barnes-Hut reducer approximates distant pairs of samples through a
quadtree over the embedding, which keeps each iteration close to linear in the
number of samples. Fitted embeddings are cached and every run is recorded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.dimred/dimred.yaml or ./dimred.yaml)")
	cmd.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().String("log-format", "", "log format: console or json")

	cmd.AddCommand(c.newFitCmd())
	cmd.AddCommand(c.newDatasetsCmd())
	cmd.AddCommand(c.newRunsCmd())
	cmd.AddCommand(c.newConfigCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

// flagKeys maps flags onto configuration keys so that flags override files and environment.
var flagKeys = map[string]string{
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"algorithm":     "model.algorithm",
	"dimensions":    "model.dimensions",
	"iterations":    "model.iterations",
	"learning-rate": "model.learning_rate",
	"depth":         "model.depth",
	"random-state":  "model.random_state",
	"init":          "model.init",
	"workers":       "model.workers",
}

func (c *CLI) initConfig(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := c.viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(c.viper, c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if c.quiet {
		cfg.Model.Verbose = false
	}
	c.setupLogger()
	return nil
}

func (c *CLI) setupLogger() {
	level, _ := zerolog.ParseLevel(c.cfg.Logging.Level)
	if c.quiet && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = c.errOut
	if c.cfg.Logging.Format == "console" {
		w = zerolog.ConsoleWriter{Out: c.errOut, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func (c *CLI) printf(format string, args ...any) {
	if !c.quiet {
		fmt.Fprintf(c.errOut, format, args...)
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}
