package source

import (
	"context"
	"encoding/json"
	"os"

	"github.com/matzehuels/latmesh/pkg/errors"
	"github.com/matzehuels/latmesh/pkg/graph"
)

// FileLoader reads a JSON mesh file from local disk.
type FileLoader struct {
	path string
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader returns a loader for the JSON mesh at path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and decodes the mesh file. Structural validation happens
// later in graph.Build; Load only rejects unreadable or malformed JSON.
func (l *FileLoader) Load(ctx context.Context) (*graph.Mesh, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "open %s", l.path)
	}
	defer f.Close()

	var mesh graph.Mesh
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mesh); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "decode %s", l.path)
	}
	return &mesh, nil
}

// Close is a no-op for file loaders.
func (l *FileLoader) Close(ctx context.Context) error {
	return nil
}
