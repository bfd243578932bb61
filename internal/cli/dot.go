package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/latmesh/pkg/cache"
	apperrors "github.com/matzehuels/latmesh/pkg/errors"
	"github.com/matzehuels/latmesh/pkg/render"
)

// dotCommand creates the dot command for mesh visualization.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output    string
		format    string
		routeSpec string
		latencies bool
	)
	opts := meshOptions{}

	cmd := &cobra.Command{
		Use:   "dot [mesh.json]",
		Short: "Render the mesh as Graphviz DOT or SVG",
		Long: `Render the mesh as Graphviz DOT or SVG.

The dot command converts the mesh into a directed Graphviz graph. With
--route FROM,TO the lowest-latency route between the two services is
computed and drawn highlighted, so the chosen path stands out against
the rest of the mesh.

Without --output the result is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDot(cmd, args[0], output, format, routeSpec, latencies, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot (default), svg")
	cmd.Flags().StringVar(&routeSpec, "route", "", "highlight the route FROM,TO")
	cmd.Flags().BoolVar(&latencies, "latencies", true, "label edges with latencies")
	registerMeshFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runDot(cmd *cobra.Command, path, output, format, routeSpec string, latencies bool, opts meshOptions) error {
	if format != "dot" && format != "svg" {
		return apperrors.New(apperrors.ErrCodeUnsupported, "unsupported format %q (want dot or svg)", format)
	}

	eng, err := c.newEngine(path, opts)
	if err != nil {
		return err
	}

	renderOpts := render.Options{ShowLatencies: latencies}
	if routeSpec != "" {
		from, to, err := parseRouteSpec(routeSpec)
		if err != nil {
			return err
		}
		route, err := eng.Path(cmd.Context(), from, to)
		if err != nil {
			return fmt.Errorf("route %d,%d: %w", from, to, err)
		}
		renderOpts.Route = &route
		c.Logger.Debug("highlighting route", "from", from, "to", to, "latency", route.Latency)
	}

	dot := render.ToDOT(eng.Graph(), renderOpts)

	var data []byte
	if format == "svg" {
		store, err := newCache(opts.noCache)
		if err != nil {
			return err
		}
		defer store.Close()

		data, err = c.renderSVGCached(cmd.Context(), store, dot)
		if err != nil {
			return err
		}
	} else {
		data = []byte(dot)
	}

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Rendered mesh as %s", format)
	printFile(output)
	return nil
}

// renderSVGCached renders dot to SVG, reusing a previously rendered
// artifact when one is cached. The key is derived from the DOT text
// itself, so route highlights and label options each get their own
// entry and a changed mesh never serves a stale drawing.
func (c *CLI) renderSVGCached(ctx context.Context, store cache.Cache, dot string) ([]byte, error) {
	key := cache.ArtifactKey(cache.Hash([]byte(dot)), "svg")

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		c.Logger.Debug("reusing cached SVG", "key", key)
		return data, nil
	}

	spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
	spinner.Start()
	data, err := render.RenderSVG(dot)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return nil, err
	}
	spinner.Stop()

	if err := store.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		c.Logger.Debug("could not cache SVG", "err", err)
	}
	return data, nil
}

// parseRouteSpec parses "FROM,TO" into the two endpoint ids.
func parseRouteSpec(spec string) (int, int, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid route spec %q (want FROM,TO)", spec)
	}
	from, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid route source %q", parts[0])
	}
	to, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid route target %q", parts[1])
	}
	return from, to, nil
}
