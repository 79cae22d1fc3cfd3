package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/objones25/dimred/pkg/datasets"
	"github.com/spf13/cobra"
)

func (c *CLI) newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the built-in datasets",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDatasets()
		},
	}
}

func (c *CLI) runDatasets() error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSAMPLES\tFEATURES\tCLASSES")
	for _, name := range datasets.Names() {
		ds, err := datasets.Load(name)
		if err != nil {
			return err
		}
		samples, features := ds.Dims()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", name, samples, features, strings.Join(ds.TargetNames, ","))
	}
	return tw.Flush()
}
