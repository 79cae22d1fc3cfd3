package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/objones25/dimred/internal/runstore"
	"github.com/spf13/cobra"
)

func (c *CLI) newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded fit runs, newest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return c.printRuns(runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a single run",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: invalid run id %q: %v", errUsage, args[0], err)
			}
			store, err := c.requireStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printRun(run)
		},
	})

	return cmd
}

func (c *CLI) requireStore(cmd *cobra.Command) (*runstore.Store, error) {
	if !c.cfg.Store.Enabled {
		return nil, fmt.Errorf("%w: run history is disabled (store.enabled=false)", errUsage)
	}
	store := c.openStore(cmd.Context())
	if store == nil {
		return nil, fmt.Errorf("run history at %s is unavailable", c.cfg.Store.Path)
	}
	return store, nil
}

func (c *CLI) printRuns(runs []*runstore.Run) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tDATASET\tALGORITHM\tSHAPE\tITERATIONS\tDURATION\tCACHED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dx%d→%d\t%d\t%s\t%t\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Dataset, r.Algorithm,
			r.Rows, r.Cols, r.TargetDimension, r.Iterations, r.Duration.Round(time.Millisecond), r.CacheHit)
	}
	return tw.Flush()
}

func (c *CLI) printRun(r *runstore.Run) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Created:\t%s\n", r.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(tw, "Dataset:\t%s (%dx%d)\n", r.Dataset, r.Rows, r.Cols)
	fmt.Fprintf(tw, "Model:\t%s (%s)\n", r.Model, r.Algorithm)
	fmt.Fprintf(tw, "Dimensions:\t%d\n", r.TargetDimension)
	fmt.Fprintf(tw, "Iterations:\t%d\n", r.Iterations)
	fmt.Fprintf(tw, "Learning rate:\t%g\n", r.LearningRate)
	fmt.Fprintf(tw, "Depth:\t%d\n", r.Depth)
	fmt.Fprintf(tw, "Random state:\t%d\n", r.RandomState)
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration)
	fmt.Fprintf(tw, "Cache hit:\t%t\n", r.CacheHit)
	return tw.Flush()
}
