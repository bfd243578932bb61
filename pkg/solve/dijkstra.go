package solve

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/latmesh/pkg/graph"
)

var (
	// ErrSourceOutOfRange is returned by [FromSource] when the source node
	// is not part of the graph's vertex set [1, N].
	ErrSourceOutOfRange = errors.New("source node out of range")

	// ErrNotReached is returned by [Tree.PathTo] when the requested target
	// was never finalized: it is unreachable from the source, or lies
	// beyond the tree's expansion bound.
	ErrNotReached = errors.New("target not reached from source")
)

// Tree is the result of a single-source shortest-path computation: the
// finalized distances from one source plus the predecessor relation for
// path reconstruction. A Tree is immutable once returned by FromSource
// and safe for concurrent readers.
type Tree struct {
	source  int
	dist    map[int]int64 // finalized distances; absence means unreachable
	pred    map[int]int   // predecessor on a shortest path; source has no entry
	partial bool          // true when expansion stopped early (target hit or bound)
}

// SourceOption configures FromSource.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	target     int
	hasTarget  bool
	maxLatency int64
}

// WithTarget stops the search as soon as t's distance is finalized.
// Valid because edge weights are non-negative: every later extraction
// from the frontier carries an equal or greater distance, so t's value
// cannot improve afterwards. The resulting Tree is partial - distances
// beyond t may be missing.
func WithTarget(t int) SourceOption {
	return func(c *sourceConfig) {
		c.target = t
		c.hasTarget = true
	}
}

// WithMaxLatency caps frontier expansion: nodes whose tentative distance
// exceeds max are never finalized. They read back as unreachable, which
// makes this a bounded-time mode for large meshes under pressure.
func WithMaxLatency(max int64) SourceOption {
	return func(c *sourceConfig) { c.maxLatency = max }
}

// FromSource computes shortest distances from source to all reachable
// nodes of g using greedy frontier expansion.
//
// The frontier is a min-heap keyed by tentative distance, seeded with
// (0, source). Extracting a node finalizes its distance; its outgoing
// arcs are then relaxed, pushing improved candidates back onto the
// frontier. Stale frontier entries (a node improved after it was pushed)
// are discarded at extraction time rather than removed from the heap,
// which avoids needing a decrease-key operation.
//
// Correctness rests on non-negative latencies: once a node is finalized
// its distance can never be improved by a path through nodes finalized
// later. Build in pkg/graph rejects negative latencies, so FromSource
// does not re-validate edge weights.
func FromSource(g *graph.Graph, source int, opts ...SourceOption) (*Tree, error) {
	if !g.Contains(source) {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrSourceOutOfRange, source, g.NodeCount())
	}

	cfg := sourceConfig{maxLatency: math.MaxInt64}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree{
		source: source,
		dist:   make(map[int]int64),
		pred:   make(map[int]int),
	}

	// best holds the smallest tentative distance pushed for each node;
	// it doubles as the staleness check on extraction.
	best := map[int]int64{source: 0}

	frontier := &frontierHeap{{node: source, dist: 0}}
	heap.Init(frontier)

	for frontier.Len() > 0 {
		entry := heap.Pop(frontier).(frontierEntry)
		u, d := entry.node, entry.dist

		if _, done := t.dist[u]; done {
			continue // stale entry, already finalized with a smaller distance
		}
		t.dist[u] = d

		if cfg.hasTarget && u == cfg.target {
			t.partial = true
			return t, nil
		}

		for _, arc := range g.Neighbors(u) {
			candidate := d + arc.Latency
			if candidate < 0 {
				continue // int64 overflow, path is beyond representable latency
			}
			if candidate > cfg.maxLatency {
				t.partial = true
				continue
			}
			if cur, seen := best[arc.To]; seen && candidate >= cur {
				continue
			}
			best[arc.To] = candidate
			t.pred[arc.To] = u
			heap.Push(frontier, frontierEntry{node: arc.To, dist: candidate})
		}
	}

	return t, nil
}

// Source returns the node this tree was expanded from.
func (t *Tree) Source() int { return t.source }

// Partial reports whether expansion stopped before covering every
// reachable node (early exit on target, or a latency bound was hit).
// A partial tree must not be reused to answer queries for other targets.
func (t *Tree) Partial() bool { return t.partial }

// Distance returns the finalized shortest distance from the source to v.
// ok is false when v was never reached; there is no numeric sentinel.
func (t *Tree) Distance(v int) (int64, bool) {
	d, ok := t.dist[v]
	return d, ok
}

// Distances returns a copy of the full distance table, covering only
// reached nodes.
func (t *Tree) Distances() map[int]int64 {
	out := make(map[int]int64, len(t.dist))
	for v, d := range t.dist {
		out[v] = d
	}
	return out
}

// PathTo reconstructs a shortest path from the source to target by
// walking the predecessor relation backwards, then reversing. The
// result includes both endpoints; PathTo(source) returns [source].
// Returns ErrNotReached when target was never finalized.
func (t *Tree) PathTo(target int) ([]int, error) {
	if _, ok := t.dist[target]; !ok {
		return nil, fmt.Errorf("%w: node %d", ErrNotReached, target)
	}

	path := []int{target}
	for v := target; v != t.source; {
		p, ok := t.pred[v]
		if !ok {
			// Finalized node other than the source always has a predecessor.
			return nil, fmt.Errorf("%w: broken predecessor chain at %d", ErrNotReached, v)
		}
		path = append(path, p)
		v = p
	}
	slices.Reverse(path)
	return path, nil
}

// frontierEntry is a (tentative distance, node) candidate awaiting
// finalization. Multiple entries per node may coexist in the heap; the
// stale ones are skipped on extraction.
type frontierEntry struct {
	node int
	dist int64
}

// frontierHeap is a min-heap of frontier entries ordered by distance.
type frontierHeap []frontierEntry

func (h frontierHeap) Len() int           { return len(h) }
func (h frontierHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h frontierHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *frontierHeap) Push(x any)        { *h = append(*h, x.(frontierEntry)) }
func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
