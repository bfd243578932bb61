package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// exploreCommand creates the explore command for interactive queries.
func (c *CLI) exploreCommand() *cobra.Command {
	opts := meshOptions{}

	cmd := &cobra.Command{
		Use:   "explore [mesh.json]",
		Short: "Explore the mesh interactively",
		Long: `Explore the mesh interactively.

The explore command opens a terminal UI over the mesh. Pick a source
service to see its full latency table, then pick a destination to see
the lowest-latency route. Route tables are computed on demand and kept
for the session, so revisiting a source is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd, args[0], opts)
		},
	}

	registerMeshFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runExplore(cmd *cobra.Command, path string, opts meshOptions) error {
	// The session issues many queries, so ephemeral mode never pays off.
	opts.noCache = false
	eng, err := c.newEngine(path, opts)
	if err != nil {
		return err
	}

	model := newExploreModel(cmd.Context(), eng)
	final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
	if err != nil {
		return fmt.Errorf("explore: %w", err)
	}

	// Print the last inspected route so it survives the session.
	if m, ok := final.(exploreModel); ok && m.route != nil {
		printSuccess("Route %d %s %d (%s µs)", m.source, iconArrow, m.target,
			StyleNumber.Render(fmt.Sprintf("%d", m.route.Latency)))
		fmt.Println("  " + formatRoute(m.route.Nodes))
	}
	return nil
}
