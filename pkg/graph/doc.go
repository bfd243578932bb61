// Package graph provides the canonical adjacency representation of a
// service-latency mesh.
//
// A mesh is a directed graph over nodes 1..N where every edge carries a
// non-negative latency: the one-hop cost of calling one service from
// another. The package owns validation and normalization of raw edge
// lists; solvers built on top of it (see pkg/solve) can assume a clean,
// deduplicated adjacency structure.
//
// # Construction
//
// Build validates every edge (endpoints in range, latency non-negative)
// and collapses duplicate directed edges to their minimum latency:
//
//	g, err := graph.Build(4, []graph.Edge{
//	    {From: 1, To: 2, Latency: 100},
//	    {From: 1, To: 3, Latency: 500},
//	    {From: 2, To: 3, Latency: 100},
//	    {From: 3, To: 4, Latency: 200},
//	})
//
// A Graph is immutable after Build and safe for concurrent readers
// without synchronization. Changing the edge set means building a new
// Graph and swapping engine instances; there is no in-place mutation.
package graph
