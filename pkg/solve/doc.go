// Package solve implements the two shortest-path strategies over a
// latency mesh: single-source greedy frontier expansion (Dijkstra) and
// all-pairs dynamic programming over relay nodes (Floyd–Warshall).
//
// Both strategies produce the same distances for the same (source,
// target) pair; they differ in cost profile. FromSource is
// O((V+E) log V) per distinct source and is the right choice when few
// sources are queried. AllPairs is O(V³) once, then answers any pair in
// O(1), and pays off when many arbitrary pairs are queried on a small
// mesh. The strategy choice lives in pkg/engine; this package only
// provides the solvers.
//
// Unreachable nodes never get a numeric sentinel distance: lookups
// return an explicit ok=false instead, so a real latency can never be
// confused with "no path".
package solve
