// Package render converts a latency mesh to Graphviz DOT and renders
// it to SVG, optionally highlighting one shortest route.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/latmesh/pkg/engine"
	"github.com/matzehuels/latmesh/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// Route, when non-nil, is drawn bold with its edges colored, so a
	// reader can trace the shortest path through the mesh.
	Route *engine.Route

	// ShowLatencies labels every edge with its latency.
	ShowLatencies bool
}

// ToDOT converts a mesh to Graphviz DOT format. Nodes are plain
// integers; edges are directed. The output renders with [RenderSVG] or
// any standalone Graphviz installation.
func ToDOT(g *graph.Graph, opts Options) string {
	onRoute := routeEdgeSet(opts.Route)

	var buf bytes.Buffer
	buf.WriteString("digraph mesh {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for n := 1; n <= g.NodeCount(); n++ {
		attrs := ""
		if opts.Route != nil && containsNode(opts.Route.Nodes, n) {
			attrs = " [fillcolor=lightblue, penwidth=2]"
		}
		fmt.Fprintf(&buf, "  %d%s;\n", n, attrs)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		var attrs []string
		if opts.ShowLatencies {
			attrs = append(attrs, fmt.Sprintf("label=\"%d\"", e.Latency))
		}
		if onRoute[edgeKey{e.From, e.To}] {
			attrs = append(attrs, "color=blue", "penwidth=2.5")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %d -> %d;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %d -> %d [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// edgeKey identifies one directed edge for route-membership lookups.
type edgeKey struct {
	from, to int
}

// routeEdgeSet returns the set of consecutive edges along a route.
func routeEdgeSet(route *engine.Route) map[edgeKey]bool {
	if route == nil {
		return nil
	}
	set := make(map[edgeKey]bool, len(route.Nodes))
	for i := 1; i < len(route.Nodes); i++ {
		set[edgeKey{route.Nodes[i-1], route.Nodes[i]}] = true
	}
	return set
}

func containsNode(nodes []int, n int) bool {
	for _, v := range nodes {
		if v == n {
			return true
		}
	}
	return false
}
