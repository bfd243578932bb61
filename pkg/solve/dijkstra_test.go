package solve

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/latmesh/pkg/graph"
)

// referenceMesh is the four-service mesh used across solver tests:
// 1→2 (100), 1→3 (500), 2→3 (100), 3→4 (200). All edges directed.
func referenceMesh(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(4, []graph.Edge{
		{From: 1, To: 2, Latency: 100},
		{From: 1, To: 3, Latency: 500},
		{From: 2, To: 3, Latency: 100},
		{From: 3, To: 4, Latency: 200},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestFromSource(t *testing.T) {
	g := referenceMesh(t)

	tree, err := FromSource(g, 1)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}

	tests := []struct {
		node      int
		want      int64
		reachable bool
	}{
		{node: 1, want: 0, reachable: true},
		{node: 2, want: 100, reachable: true},
		{node: 3, want: 200, reachable: true}, // via 2, not the direct 500 edge
		{node: 4, want: 400, reachable: true},
	}
	for _, tt := range tests {
		d, ok := tree.Distance(tt.node)
		if ok != tt.reachable {
			t.Errorf("Distance(%d) reachable = %v, want %v", tt.node, ok, tt.reachable)
			continue
		}
		if ok && d != tt.want {
			t.Errorf("Distance(%d) = %d, want %d", tt.node, d, tt.want)
		}
	}

	if tree.Partial() {
		t.Error("full expansion reported as partial")
	}
}

func TestFromSourceUnreachable(t *testing.T) {
	g := referenceMesh(t)

	// No reverse edges: nothing is reachable from 4, and 1 is unreachable
	// from everywhere.
	tree, err := FromSource(g, 4)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	if d, ok := tree.Distance(1); ok {
		t.Errorf("Distance(1) = %d from node 4, want unreachable", d)
	}
	if d, ok := tree.Distance(4); !ok || d != 0 {
		t.Errorf("Distance(4) = %d,%v, want 0,true", d, ok)
	}
	if got := len(tree.Distances()); got != 1 {
		t.Errorf("Distances() covers %d nodes, want 1", got)
	}
}

func TestFromSourceOutOfRange(t *testing.T) {
	g := referenceMesh(t)
	for _, src := range []int{0, 5, -3} {
		if _, err := FromSource(g, src); !errors.Is(err, ErrSourceOutOfRange) {
			t.Errorf("FromSource(%d) error = %v, want ErrSourceOutOfRange", src, err)
		}
	}
}

func TestFromSourceEarlyExit(t *testing.T) {
	g := referenceMesh(t)

	tree, err := FromSource(g, 1, WithTarget(3))
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	if d, ok := tree.Distance(3); !ok || d != 200 {
		t.Errorf("Distance(3) = %d,%v, want 200,true", d, ok)
	}
	if !tree.Partial() {
		t.Error("early-exit tree not marked partial")
	}
	// The target's distance is already final when the search stops, so
	// the reconstructed path must be valid too.
	path, err := tree.PathTo(3)
	if err != nil {
		t.Fatalf("PathTo(3): %v", err)
	}
	if want := []int{1, 2, 3}; !slices.Equal(path, want) {
		t.Errorf("PathTo(3) = %v, want %v", path, want)
	}
}

func TestFromSourceMaxLatency(t *testing.T) {
	g := referenceMesh(t)

	tree, err := FromSource(g, 1, WithMaxLatency(250))
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	if d, ok := tree.Distance(3); !ok || d != 200 {
		t.Errorf("Distance(3) = %d,%v, want 200,true", d, ok)
	}
	if _, ok := tree.Distance(4); ok {
		t.Error("node 4 (distance 400) finalized despite 250 bound")
	}
	if !tree.Partial() {
		t.Error("bounded tree not marked partial")
	}
}

func TestPathTo(t *testing.T) {
	g := referenceMesh(t)
	tree, err := FromSource(g, 1)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}

	tests := []struct {
		name    string
		target  int
		want    []int
		wantErr bool
	}{
		{name: "ToFarthest", target: 4, want: []int{1, 2, 3, 4}},
		{name: "ViaRelay", target: 3, want: []int{1, 2, 3}},
		{name: "DirectHop", target: 2, want: []int{1, 2}},
		{name: "SelfIsSingleNode", target: 1, want: []int{1}},
		{name: "UnreachedFails", target: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tree.PathTo(tt.target)
			if tt.wantErr {
				if !errors.Is(err, ErrNotReached) {
					t.Errorf("PathTo(%d) error = %v, want ErrNotReached", tt.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PathTo(%d): %v", tt.target, err)
			}
			if !slices.Equal(path, tt.want) {
				t.Errorf("PathTo(%d) = %v, want %v", tt.target, path, tt.want)
			}
		})
	}
}

// TestPathLatencySum checks that a reconstructed path's edge latencies
// sum to the reported distance.
func TestPathLatencySum(t *testing.T) {
	g, err := graph.Build(6, []graph.Edge{
		{From: 1, To: 2, Latency: 7},
		{From: 1, To: 3, Latency: 9},
		{From: 1, To: 6, Latency: 14},
		{From: 2, To: 3, Latency: 10},
		{From: 2, To: 4, Latency: 15},
		{From: 3, To: 4, Latency: 11},
		{From: 3, To: 6, Latency: 2},
		{From: 4, To: 5, Latency: 6},
		{From: 6, To: 5, Latency: 9},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tree, err := FromSource(g, 1)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}

	arcLatency := func(from, to int) int64 {
		for _, a := range g.Neighbors(from) {
			if a.To == to {
				return a.Latency
			}
		}
		t.Fatalf("no arc %d→%d on reconstructed path", from, to)
		return 0
	}

	for target := 1; target <= 6; target++ {
		want, ok := tree.Distance(target)
		if !ok {
			t.Fatalf("node %d unexpectedly unreachable", target)
		}
		path, err := tree.PathTo(target)
		if err != nil {
			t.Fatalf("PathTo(%d): %v", target, err)
		}
		var sum int64
		for i := 1; i < len(path); i++ {
			sum += arcLatency(path[i-1], path[i])
		}
		if sum != want {
			t.Errorf("path %v sums to %d, reported distance %d", path, sum, want)
		}
	}
}

// An accumulated distance that exceeds int64 reads as unreachable
// instead of wrapping negative and poisoning the frontier.
func TestFromSourceOverflowingPathIsUnreachable(t *testing.T) {
	g, err := graph.Build(3, []graph.Edge{
		{From: 1, To: 2, Latency: math.MaxInt64 - 1},
		{From: 2, To: 3, Latency: 100},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tree, err := FromSource(g, 1)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}

	if d, ok := tree.Distance(2); !ok || d != math.MaxInt64-1 {
		t.Errorf("Distance(2) = %d,%v, want %d,true", d, ok, int64(math.MaxInt64-1))
	}
	if d, ok := tree.Distance(3); ok {
		t.Errorf("Distance(3) = %d,%v, want unreachable", d, ok)
	}
	if _, err := tree.PathTo(3); !errors.Is(err, ErrNotReached) {
		t.Errorf("PathTo(3) error = %v, want ErrNotReached", err)
	}
}

// TestRedundantEdgeIgnored checks the deduplication invariant from the
// solver side: a second, slower edge between an already-linked pair
// changes no distance.
func TestRedundantEdgeIgnored(t *testing.T) {
	edges := []graph.Edge{
		{From: 1, To: 2, Latency: 100},
		{From: 2, To: 3, Latency: 100},
	}
	clean, err := graph.Build(3, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	noisy, err := graph.Build(3, append(edges, graph.Edge{From: 1, To: 2, Latency: 9999}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want, err := FromSource(clean, 1)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	got, err := FromSource(noisy, 1)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}

	for v := 1; v <= 3; v++ {
		wd, wok := want.Distance(v)
		gd, gok := got.Distance(v)
		if wok != gok || wd != gd {
			t.Errorf("node %d: clean %d,%v vs noisy %d,%v", v, wd, wok, gd, gok)
		}
	}
}
