// Package source loads latency meshes from external backends. A
// [Loader] produces the raw mesh; callers build the graph from it with
// whatever options they need.
package source

import (
	"context"

	"github.com/matzehuels/latmesh/pkg/graph"
)

// Loader fetches a mesh from a backing store.
type Loader interface {
	// Load retrieves the mesh. Implementations return a structured
	// error with the SOURCE code when the backend is unreachable or
	// the stored data is malformed.
	Load(ctx context.Context) (*graph.Mesh, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
