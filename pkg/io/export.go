package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/latmesh/pkg/graph"
)

// WriteJSON encodes a Graph as a JSON mesh and writes it to w.
// The edge list is the canonical deduplicated one, so the output can be
// re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(graph.FromGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a Graph to a JSON mesh file at path, creating or
// truncating it.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteJSON(g, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
