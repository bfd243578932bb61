package solve

import (
	"math"

	"github.com/matzehuels/latmesh/pkg/graph"
)

// unreachable marks "no path" inside the all-pairs table. It never
// leaks through the public API: Matrix.Distance translates it to
// ok=false. Relaxation skips unreachable operands before adding, and a
// sum of two finite distances that wraps negative is discarded, so the
// sentinel can never be produced or beaten by an overflowed value.
const unreachable = math.MaxInt64

// Matrix holds precomputed shortest distances between every pair of
// nodes. Building is cubic in the node count; afterwards any query is
// answered in constant time. A Matrix is immutable once built and safe
// for concurrent readers.
type Matrix struct {
	n    int
	dist [][]int64
}

// AllPairs precomputes shortest distances between all node pairs of g
// via dynamic programming over relay nodes.
//
// The table starts with dist[i][i] = 0, dist[u][v] = latency for each
// direct (deduplicated) edge, and unreachable everywhere else. Each pass
// over a relay k then relaxes every pair through k; after processing
// relay k, dist[i][j] is the true shortest distance among paths whose
// internal nodes all lie in 1..k. After the final relay the table is
// globally correct.
//
// Appropriate when the node count is small relative to the number of
// anticipated (source, target) queries; pkg/engine owns that policy.
func AllPairs(g *graph.Graph) *Matrix {
	n := g.NodeCount()

	dist := make([][]int64, n+1)
	for i := 0; i <= n; i++ {
		dist[i] = make([]int64, n+1)
		for j := 0; j <= n; j++ {
			dist[i][j] = unreachable
		}
		dist[i][i] = 0
	}
	for u := 1; u <= n; u++ {
		for _, arc := range g.Neighbors(u) {
			// Min keeps the diagonal at 0 when a self-loop edge exists:
			// the empty path is always at least as short.
			if arc.Latency < dist[u][arc.To] {
				dist[u][arc.To] = arc.Latency
			}
		}
	}

	// Fixed k → i → j loop order for deterministic accumulation.
	for k := 1; k <= n; k++ {
		for i := 1; i <= n; i++ {
			ik := dist[i][k]
			if ik == unreachable {
				continue // no path via k can improve anything from i
			}
			for j := 1; j <= n; j++ {
				kj := dist[k][j]
				if kj == unreachable {
					continue
				}
				cand := ik + kj
				if cand < 0 {
					continue // int64 overflow, path is beyond representable latency
				}
				if cand < dist[i][j] {
					dist[i][j] = cand
				}
			}
		}
	}

	return &Matrix{n: n, dist: dist}
}

// NodeCount returns N, the size of the vertex set the matrix covers.
func (m *Matrix) NodeCount() int { return m.n }

// Distance returns the shortest distance from u to v. ok is false when
// either endpoint is out of range or v is unreachable from u.
func (m *Matrix) Distance(u, v int) (int64, bool) {
	if u < 1 || u > m.n || v < 1 || v > m.n {
		return 0, false
	}
	d := m.dist[u][v]
	if d == unreachable {
		return 0, false
	}
	return d, true
}
