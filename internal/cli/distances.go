package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/latmesh/pkg/engine"
)

// distancesCommand creates the distances command for full route tables.
func (c *CLI) distancesCommand() *cobra.Command {
	var from int
	opts := meshOptions{}

	cmd := &cobra.Command{
		Use:   "distances [mesh.json]",
		Short: "Print the latency from one service to every reachable service",
		Long: `Print the latency from one service to every reachable service.

The distances command computes the full single-source route table and
prints one line per reachable destination, sorted by service id.
Unreachable services are omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDistances(cmd, args[0], from, opts)
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "source service id")
	_ = cmd.MarkFlagRequired("from")
	registerMeshFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runDistances(cmd *cobra.Command, path string, from int, opts meshOptions) error {
	eng, err := c.newEngine(path, opts)
	if err != nil {
		return err
	}

	p := newProgress(c.Logger)
	dist, err := eng.DistancesFrom(cmd.Context(), from)
	switch {
	case errors.Is(err, engine.ErrNodeOutOfRange):
		printError("Node out of range: mesh has %d nodes", eng.Graph().NodeCount())
		return err
	case err != nil:
		return err
	}
	p.done(fmt.Sprintf("Solved %d destinations from %d", len(dist), from))

	targets := make([]int, 0, len(dist))
	for v := range dist {
		targets = append(targets, v)
	}
	sort.Ints(targets)

	printSuccess("Latency from service %d (%d reachable)", from, len(targets))
	for _, v := range targets {
		printKeyValue(fmt.Sprintf("%d", v), fmt.Sprintf("%d µs", dist[v]))
	}
	return nil
}
