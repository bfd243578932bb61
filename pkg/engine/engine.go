package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/latmesh/pkg/cache"
	"github.com/matzehuels/latmesh/pkg/graph"
	"github.com/matzehuels/latmesh/pkg/observability"
	"github.com/matzehuels/latmesh/pkg/solve"
)

var (
	// ErrNoRoute is returned when the target is not reachable from the
	// source. This is an expected, common outcome on sparse meshes, not
	// a fault; callers check it with errors.Is.
	ErrNoRoute = errors.New("no route")

	// ErrNodeOutOfRange is returned when a query references a node id
	// outside [1, N]. Kept distinct from ErrNoRoute because it indicates
	// caller misuse rather than a topological fact.
	ErrNodeOutOfRange = errors.New("node out of range")
)

// Route is a reconstructed shortest path: the node sequence inclusive
// of both endpoints and its cumulative latency.
type Route struct {
	Nodes   []int `json:"nodes" bson:"nodes"`
	Latency int64 `json:"latency" bson:"latency"`
}

// Engine answers minimum-latency queries over one immutable graph.
// Create with New; see the package documentation for the strategy
// policy and concurrency guarantees.
type Engine struct {
	graph *graph.Graph
	opts  Options
	fp    string

	mu      sync.RWMutex
	trees   map[int]*solve.Tree // full per-source trees, keyed by source
	matrix  *solve.Matrix       // nil until promoted or forced
	sources map[int]struct{}    // distinct sources seen, drives promotion

	group singleflight.Group
}

// New creates an Engine over g. With Options.ForceAllPairs the matrix
// is built eagerly; otherwise solver state is lazy.
func New(g *graph.Graph, opts Options) *Engine {
	e := &Engine{
		graph:   g,
		opts:    opts.withDefaults(),
		fp:      g.Fingerprint(),
		trees:   make(map[int]*solve.Tree),
		sources: make(map[int]struct{}),
	}
	if e.opts.ForceAllPairs {
		start := time.Now()
		e.matrix = solve.AllPairs(g)
		e.opts.Logger.Debug("built all-pairs matrix",
			"nodes", g.NodeCount(),
			"duration", time.Since(start).Round(time.Millisecond))
	}
	return e
}

// Graph returns the engine's underlying graph.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// MinLatency returns the minimum cumulative latency from src to dst.
// Returns ErrNodeOutOfRange for invalid ids and ErrNoRoute when dst is
// unreachable from src. MinLatency(x, x) is 0 for any valid x.
func (e *Engine) MinLatency(ctx context.Context, src, dst int) (int64, error) {
	if err := e.checkRange(src, dst); err != nil {
		return 0, err
	}
	if src == dst {
		return 0, nil
	}

	if m := e.currentMatrix(); m != nil {
		d, ok := m.Distance(src, dst)
		if !ok {
			return 0, fmt.Errorf("%w: from %d to %d", ErrNoRoute, src, dst)
		}
		return d, nil
	}

	if e.opts.Ephemeral {
		return e.ephemeralDistance(src, dst)
	}

	tree, err := e.treeFor(ctx, src)
	if err != nil {
		return 0, err
	}
	d, ok := tree.Distance(dst)
	if !ok {
		return 0, fmt.Errorf("%w: from %d to %d", ErrNoRoute, src, dst)
	}
	return d, nil
}

// Path returns a shortest route from src to dst, inclusive of both
// endpoints. Path(x, x) is the single-node route [x] with latency 0.
// Route reconstruction always runs on a per-source tree: the all-pairs
// matrix holds distances only.
func (e *Engine) Path(ctx context.Context, src, dst int) (Route, error) {
	if err := e.checkRange(src, dst); err != nil {
		return Route{}, err
	}
	if src == dst {
		return Route{Nodes: []int{src}, Latency: 0}, nil
	}

	var tree *solve.Tree
	var err error
	if e.opts.Ephemeral {
		tree, err = solve.FromSource(e.graph, src, e.sourceOpts(solve.WithTarget(dst))...)
	} else {
		tree, err = e.treeFor(ctx, src)
	}
	if err != nil {
		return Route{}, err
	}

	d, ok := tree.Distance(dst)
	if !ok {
		return Route{}, fmt.Errorf("%w: from %d to %d", ErrNoRoute, src, dst)
	}
	nodes, err := tree.PathTo(dst)
	if err != nil {
		return Route{}, fmt.Errorf("%w: from %d to %d", ErrNoRoute, src, dst)
	}
	return Route{Nodes: nodes, Latency: d}, nil
}

// DistancesFrom returns the minimum latency from src to every reachable
// node. Unreachable nodes are simply absent from the result. In
// ephemeral mode the full tree is still solved, but discarded afterwards
// instead of being retained or persisted.
func (e *Engine) DistancesFrom(ctx context.Context, src int) (map[int]int64, error) {
	if !e.graph.Contains(src) {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrNodeOutOfRange, src, e.graph.NodeCount())
	}
	if e.opts.Ephemeral {
		tree, err := solve.FromSource(e.graph, src, e.sourceOpts()...)
		if err != nil {
			return nil, err
		}
		return tree.Distances(), nil
	}
	tree, err := e.treeFor(ctx, src)
	if err != nil {
		return nil, err
	}
	return tree.Distances(), nil
}

// checkRange validates both query endpoints against the vertex set.
func (e *Engine) checkRange(src, dst int) error {
	if !e.graph.Contains(src) {
		return fmt.Errorf("%w: source %d not in [1, %d]", ErrNodeOutOfRange, src, e.graph.NodeCount())
	}
	if !e.graph.Contains(dst) {
		return fmt.Errorf("%w: target %d not in [1, %d]", ErrNodeOutOfRange, dst, e.graph.NodeCount())
	}
	return nil
}

// currentMatrix returns the all-pairs matrix if built.
func (e *Engine) currentMatrix() *solve.Matrix {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.matrix
}

// ephemeralDistance answers a one-shot distance query with an
// early-exit solver pass and discards the tree.
func (e *Engine) ephemeralDistance(src, dst int) (int64, error) {
	tree, err := solve.FromSource(e.graph, src, e.sourceOpts(solve.WithTarget(dst))...)
	if err != nil {
		return 0, err
	}
	d, ok := tree.Distance(dst)
	if !ok {
		return 0, fmt.Errorf("%w: from %d to %d", ErrNoRoute, src, dst)
	}
	return d, nil
}

// sourceOpts assembles solver options from the engine configuration.
func (e *Engine) sourceOpts(extra ...solve.SourceOption) []solve.SourceOption {
	opts := extra
	if e.opts.MaxLatency > 0 {
		opts = append(opts, solve.WithMaxLatency(e.opts.MaxLatency))
	}
	return opts
}

// treeFor returns the full shortest-path tree for src, computing and
// caching it on first use. Concurrent callers for the same cold source
// are collapsed into a single solver run; redundant computation would
// only be wasted work, but the shared map must never see a torn write,
// so all writes happen under the mutex.
func (e *Engine) treeFor(ctx context.Context, src int) (*solve.Tree, error) {
	e.mu.RLock()
	tree, ok := e.trees[src]
	e.mu.RUnlock()
	if ok {
		return tree, nil
	}

	v, err, _ := e.group.Do(fmt.Sprintf("tree:%d", src), func() (any, error) {
		// Re-check under the group: a previous flight may have landed
		// between our read and this call.
		e.mu.RLock()
		cached, ok := e.trees[src]
		e.mu.RUnlock()
		if ok {
			return cached, nil
		}

		tree, err := e.loadOrCompute(ctx, src)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.trees[src] = tree
		e.sources[src] = struct{}{}
		distinct := len(e.sources)
		e.mu.Unlock()

		e.maybePromote(distinct)
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*solve.Tree), nil
}

// storedTree is the persisted form of a route table.
type storedTree struct {
	Source int           `json:"source"`
	Dist   map[int]int64 `json:"dist"`
	Pred   map[int]int   `json:"pred"`
}

// loadOrCompute consults the persistent cache before running the
// solver, and writes back on a miss. Cache failures are logged and
// degrade to computation, never to query failure.
func (e *Engine) loadOrCompute(ctx context.Context, src int) (*solve.Tree, error) {
	key := cache.RouteTableKey(e.fp, src)

	if e.opts.Cache != nil {
		if data, hit, err := e.opts.Cache.Get(ctx, key); err == nil && hit {
			var st storedTree
			if err := json.Unmarshal(data, &st); err == nil && st.Source == src {
				e.opts.Logger.Debug("route table cache hit", "source", src)
				observability.Cache().OnCacheHit(ctx, "routes")
				return solve.RestoreTree(st.Source, st.Dist, st.Pred), nil
			}
			// Corrupt entry: drop it and recompute.
			_ = e.opts.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "routes")
	}

	start := time.Now()
	observability.Solver().OnSolveStart(ctx, src)
	tree, err := solve.FromSource(e.graph, src, e.sourceOpts()...)
	if err != nil {
		observability.Solver().OnSolveComplete(ctx, src, 0, time.Since(start), err)
		return nil, err
	}
	reached := len(tree.Distances())
	observability.Solver().OnSolveComplete(ctx, src, reached, time.Since(start), nil)
	e.opts.Logger.Debug("computed route table",
		"source", src,
		"reached", reached,
		"duration", time.Since(start).Round(time.Millisecond))

	if e.opts.Cache != nil && !tree.Partial() {
		st := storedTree{Source: src, Dist: tree.Distances(), Pred: tree.Pred()}
		if data, err := json.Marshal(st); err == nil {
			if err := e.opts.Cache.Set(ctx, key, data, e.opts.CacheTTL); err != nil {
				e.opts.Logger.Warn("route table cache write failed", "source", src, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "routes", len(data))
			}
		}
	}

	return tree, nil
}

// maybePromote builds the all-pairs matrix once the policy threshold is
// crossed. The build runs outside the lock; losing a race just means
// two identical matrices were computed and one is kept.
func (e *Engine) maybePromote(distinctSources int) {
	if e.opts.Ephemeral {
		return
	}
	if e.graph.NodeCount() > e.opts.AllPairsMaxNodes {
		return
	}
	if distinctSources <= e.opts.PromoteAfter {
		return
	}
	if e.currentMatrix() != nil {
		return
	}

	start := time.Now()
	m := solve.AllPairs(e.graph)

	e.mu.Lock()
	if e.matrix == nil {
		e.matrix = m
	}
	e.mu.Unlock()

	observability.Solver().OnPromote(context.Background(), e.graph.NodeCount(), distinctSources, time.Since(start))
	e.opts.Logger.Info("promoted to all-pairs strategy",
		"nodes", e.graph.NodeCount(),
		"distinct_sources", distinctSources,
		"duration", time.Since(start).Round(time.Millisecond))
}
