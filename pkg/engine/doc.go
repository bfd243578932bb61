// Package engine is the query façade over a latency mesh: it owns one
// immutable graph, picks a solver strategy per access pattern, and
// serves minimum-latency and route queries.
//
// # Strategy policy
//
// Queries start on per-source greedy trees (pkg/solve.FromSource),
// cached by source node. Once more than PromoteAfter distinct sources
// have been queried on a mesh no larger than AllPairsMaxNodes, the
// engine builds the all-pairs matrix once and answers subsequent
// distance queries from it in constant time. Route reconstruction
// always uses trees: only they carry predecessor information.
//
// # Concurrency
//
// An Engine is safe for concurrent use. Computed trees and the matrix
// are read-mostly state behind an RWMutex; the first computation for a
// source is deduplicated with singleflight so concurrent queries for
// the same cold source trigger exactly one solver run.
//
// # Rebuilds
//
// The graph is immutable. To change the edge set, build a new graph and
// a new Engine and swap the reference; all cached solver state belongs
// to the old instance and is dropped with it.
package engine
