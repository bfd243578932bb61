package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/latmesh/pkg/errors"
	"github.com/matzehuels/latmesh/pkg/graph"
)

// ReadJSON decodes a JSON mesh from r and builds a validated Graph.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or invalid
//   - An edge endpoint lies outside [1, nodes]
//   - An edge carries a negative latency
//
// Build-time structural errors abort the whole import; a partially
// loaded graph is never returned. ReadJSON does not close r.
func ReadJSON(r io.Reader, opts ...graph.Option) (*graph.Graph, error) {
	var mesh graph.Mesh
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mesh); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphFile, err, "decode mesh")
	}

	g, err := graph.Build(mesh.Nodes, mesh.Edges, opts...)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ImportJSON reads a JSON mesh file at path and returns the built Graph.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. Errors wrap the underlying cause with the file path for context.
func ImportJSON(path string, opts ...graph.Option) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphFile, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f, opts...)
}
