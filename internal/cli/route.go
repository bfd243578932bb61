package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/latmesh/pkg/engine"
)

// routeCommand creates the route command for path reconstruction.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		from int
		to   int
	)
	opts := meshOptions{}

	cmd := &cobra.Command{
		Use:   "route [mesh.json]",
		Short: "Show the lowest-latency route between two services",
		Long: `Show the lowest-latency route between two services.

The route command prints the full hop sequence achieving the minimum
latency, one service id per hop, together with the total latency. Ties
between equally cheap routes are broken deterministically, so the same
mesh always yields the same route.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd, args[0], from, to, opts)
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "source service id")
	cmd.Flags().IntVar(&to, "to", 0, "destination service id")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	registerMeshFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runRoute(cmd *cobra.Command, path string, from, to int, opts meshOptions) error {
	eng, err := c.newEngine(path, opts)
	if err != nil {
		return err
	}

	route, err := eng.Path(cmd.Context(), from, to)
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

	printSuccess("Route %d %s %d (%s µs, %d hops)", from, iconArrow, to,
		StyleNumber.Render(fmt.Sprintf("%d", route.Latency)), len(route.Nodes)-1)
	fmt.Println("  " + formatRoute(route.Nodes))
	printNextStep("Render it", fmt.Sprintf("latmesh dot %s --route %d,%d -o route.svg", path, from, to))
	return nil
}
