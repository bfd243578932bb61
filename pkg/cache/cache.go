// Package cache provides pluggable byte caches for precomputed route
// tables and rendered artifacts.
//
// Three backends implement the same small interface: a file cache for
// CLI runs (XDG cache directory), a Redis cache for the serve
// deployment where several replicas share one warm store, and a null
// cache for tests or --no-cache runs.
//
// Keys are derived from the graph fingerprint so that a rebuilt mesh
// never reads stale tables: a different edge set hashes to a different
// fingerprint, which makes invalidation implicit.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default TTLs per cached artifact class.
const (
	// TTLRouteTable bounds how long a per-source distance table may be
	// served from cache. Tables are already invalidated by fingerprint on
	// rebuild; the TTL only bounds storage growth for abandoned meshes.
	TTLRouteTable = 24 * time.Hour

	// TTLArtifact is the lifetime of rendered outputs (DOT, SVG).
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the minimal byte-cache contract shared by all backends.
// Get reports (data, hit, error); a miss is not an error.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// RouteTableKey derives the cache key for the distance table of one
// source node within one mesh. fingerprint is graph.Fingerprint(), so
// the key changes whenever the edge set does.
func RouteTableKey(fingerprint string, source int) string {
	return fmt.Sprintf("routes:%s:%d", fingerprint, source)
}

// ArtifactKey derives the cache key for a rendered artifact (e.g. an
// SVG of the mesh) in a given format.
func ArtifactKey(fingerprint, format string) string {
	return fmt.Sprintf("artifact:%s:%s", fingerprint, format)
}
