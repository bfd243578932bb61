package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/latmesh/pkg/engine"
)

// queryCommand creates the query command for single latency lookups.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		from int
		to   int
	)
	opts := meshOptions{}

	cmd := &cobra.Command{
		Use:   "query [mesh.json]",
		Short: "Query the minimum latency between two services",
		Long: `Query the minimum latency between two services.

The query command loads a JSON mesh file and answers one shortest-latency
lookup. With caching enabled (the default) the computed route table is
persisted under the mesh's fingerprint, so repeated queries against the
same mesh skip the solve entirely.

Use --no-cache for a one-shot lookup: the solver stops as soon as the
target is settled and nothing is written to disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd, args[0], from, to, opts)
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "source service id")
	cmd.Flags().IntVar(&to, "to", 0, "destination service id")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	registerMeshFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runQuery(cmd *cobra.Command, path string, from, to int, opts meshOptions) error {
	eng, err := c.newEngine(path, opts)
	if err != nil {
		return err
	}

	p := newProgress(c.Logger)
	latency, err := eng.MinLatency(cmd.Context(), from, to)
	switch {
	case errors.Is(err, engine.ErrNoRoute):
		printError("No route from %d to %d", from, to)
		return err
	case errors.Is(err, engine.ErrNodeOutOfRange):
		printError("Node out of range: mesh has %d nodes", eng.Graph().NodeCount())
		return err
	case err != nil:
		return err
	}
	p.done(fmt.Sprintf("Resolved %d %s %d", from, iconArrow, to))

	printSuccess("Minimum latency %d %s %d: %s µs", from, iconArrow, to, StyleNumber.Render(fmt.Sprintf("%d", latency)))
	printStats(eng.Graph().NodeCount(), eng.Graph().EdgeCount(), false)
	printNextStep("Show the route", fmt.Sprintf("latmesh route %s --from %d --to %d", path, from, to))
	return nil
}
