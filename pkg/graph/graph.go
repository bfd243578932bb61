package graph

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"slices"

	"github.com/matzehuels/latmesh/pkg/errors"
)

// Arc is an outgoing adjacency entry: a neighbor together with the
// latency of the direct edge leading to it.
type Arc struct {
	To      int
	Latency int64
}

// Graph is the immutable adjacency representation of a latency mesh.
// Nodes are identified by integers in [1, NodeCount()]. Duplicate
// directed edges are collapsed to their minimum latency at build time,
// so solvers never see more than one arc per (from, to) pair.
//
// The zero value is not usable - use Build to create a valid Graph.
// A built Graph is read-only and safe for concurrent use.
type Graph struct {
	n   int
	adj [][]Arc
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	undirected bool
}

// Undirected makes Build insert the reverse of every edge before
// deduplication, turning each input edge into a bidirectional link.
func Undirected() Option {
	return func(c *buildConfig) { c.undirected = true }
}

// Build constructs a Graph from a node count and a raw edge list.
//
// Every edge is validated before anything is stored: both endpoints must
// lie in [1, nodeCount] and the latency must be non-negative. Negative
// latencies are rejected outright rather than accepted with undefined
// results - the solvers in pkg/solve rely on non-negative weights for
// correctness. A failed Build returns a nil Graph and never exposes a
// partially-built store.
//
// When multiple edges share the same (from, to) pair, only the smallest
// latency is kept. Equal-latency duplicates collapse to that latency.
func Build(nodeCount int, edges []Edge, opts ...Option) (*Graph, error) {
	if nodeCount < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node count must be non-negative, got %d", nodeCount)
	}

	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, e := range edges {
		if e.From < 1 || e.From > nodeCount {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge %d→%d: source outside [1, %d]", e.From, e.To, nodeCount)
		}
		if e.To < 1 || e.To > nodeCount {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge %d→%d: destination outside [1, %d]", e.From, e.To, nodeCount)
		}
		if e.Latency < 0 {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge %d→%d: latency %d is negative", e.From, e.To, e.Latency)
		}
	}

	// best maps (from<<32 | to) to the minimum latency seen so far.
	best := make(map[uint64]int64, len(edges))
	record := func(from, to int, latency int64) {
		key := uint64(from)<<32 | uint64(uint32(to))
		if cur, ok := best[key]; !ok || latency < cur {
			best[key] = latency
		}
	}
	for _, e := range edges {
		record(e.From, e.To, e.Latency)
		if cfg.undirected {
			record(e.To, e.From, e.Latency)
		}
	}

	adj := make([][]Arc, nodeCount+1)
	for key, latency := range best {
		from := int(key >> 32)
		to := int(uint32(key))
		adj[from] = append(adj[from], Arc{To: to, Latency: latency})
	}

	// Sort adjacency lists for deterministic iteration and fingerprints.
	for _, arcs := range adj {
		slices.SortFunc(arcs, func(a, b Arc) int { return a.To - b.To })
	}

	return &Graph{n: nodeCount, adj: adj}, nil
}

// NodeCount returns N, the size of the vertex set [1, N].
func (g *Graph) NodeCount() int { return g.n }

// EdgeCount returns the number of deduplicated directed edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, arcs := range g.adj {
		count += len(arcs)
	}
	return count
}

// Contains reports whether id is a valid node identifier for this graph.
func (g *Graph) Contains(id int) bool { return id >= 1 && id <= g.n }

// Neighbors returns the outgoing arcs of u, sorted by destination.
// The returned slice is owned by the Graph and must not be modified.
// For out-of-range u it returns nil, which iterates as an empty list.
func (g *Graph) Neighbors(u int) []Arc {
	if !g.Contains(u) {
		return nil
	}
	return g.adj[u]
}

// Edges returns the deduplicated edge list in canonical order
// (ascending by source, then destination). The result is freshly
// allocated and safe to modify.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.EdgeCount())
	for from := 1; from <= g.n; from++ {
		for _, a := range g.adj[from] {
			out = append(out, Edge{From: from, To: a.To, Latency: a.Latency})
		}
	}
	return out
}

// Fingerprint returns a hex SHA-256 digest of the canonical edge list
// and node count. Two graphs with the same node count and the same
// deduplicated edges have the same fingerprint, regardless of input
// edge order or redundant duplicates. Used for cache keys.
func (g *Graph) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(g.n))
	h.Write(buf[:])
	for from := 1; from <= g.n; from++ {
		for _, a := range g.adj[from] {
			binary.BigEndian.PutUint64(buf[:], uint64(from))
			h.Write(buf[:])
			binary.BigEndian.PutUint64(buf[:], uint64(a.To))
			h.Write(buf[:])
			binary.BigEndian.PutUint64(buf[:], uint64(a.Latency))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
