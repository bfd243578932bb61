package graph

import (
	"testing"

	"github.com/matzehuels/latmesh/pkg/errors"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		nodes     int
		edges     []Edge
		opts      []Option
		wantErr   errors.Code
		wantEdges int
	}{
		{
			name:      "Empty",
			nodes:     0,
			edges:     nil,
			wantEdges: 0,
		},
		{
			name:  "Simple",
			nodes: 4,
			edges: []Edge{
				{From: 1, To: 2, Latency: 100},
				{From: 1, To: 3, Latency: 500},
				{From: 2, To: 3, Latency: 100},
				{From: 3, To: 4, Latency: 200},
			},
			wantEdges: 4,
		},
		{
			name:  "DuplicatesKeepMinimum",
			nodes: 2,
			edges: []Edge{
				{From: 1, To: 2, Latency: 300},
				{From: 1, To: 2, Latency: 100},
				{From: 1, To: 2, Latency: 200},
			},
			wantEdges: 1,
		},
		{
			name:  "Undirected",
			nodes: 2,
			edges: []Edge{
				{From: 1, To: 2, Latency: 50},
			},
			opts:      []Option{Undirected()},
			wantEdges: 2,
		},
		{
			name:    "SourceOutOfRange",
			nodes:   3,
			edges:   []Edge{{From: 0, To: 2, Latency: 10}},
			wantErr: errors.ErrCodeInvalidEdge,
		},
		{
			name:    "DestinationOutOfRange",
			nodes:   3,
			edges:   []Edge{{From: 1, To: 4, Latency: 10}},
			wantErr: errors.ErrCodeInvalidEdge,
		},
		{
			name:    "NegativeLatency",
			nodes:   3,
			edges:   []Edge{{From: 1, To: 2, Latency: -5}},
			wantErr: errors.ErrCodeInvalidEdge,
		},
		{
			name:    "NegativeNodeCount",
			nodes:   -1,
			wantErr: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.nodes, tt.edges, tt.opts...)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("Build: expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Build error code = %v, want %v", errors.GetCode(err), tt.wantErr)
				}
				if g != nil {
					t.Error("Build returned a graph alongside an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := g.NodeCount(); got != tt.nodes {
				t.Errorf("NodeCount() = %d, want %d", got, tt.nodes)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", got, tt.wantEdges)
			}
		})
	}
}

func TestBuildDeduplicatesToMinimum(t *testing.T) {
	g, err := Build(2, []Edge{
		{From: 1, To: 2, Latency: 300},
		{From: 1, To: 2, Latency: 100},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	arcs := g.Neighbors(1)
	if len(arcs) != 1 {
		t.Fatalf("Neighbors(1) = %d arcs, want 1", len(arcs))
	}
	if arcs[0].To != 2 || arcs[0].Latency != 100 {
		t.Errorf("Neighbors(1)[0] = %+v, want {To:2 Latency:100}", arcs[0])
	}
}

func TestNeighborsOutOfRange(t *testing.T) {
	g, err := Build(2, []Edge{{From: 1, To: 2, Latency: 1}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if arcs := g.Neighbors(0); arcs != nil {
		t.Errorf("Neighbors(0) = %v, want nil", arcs)
	}
	if arcs := g.Neighbors(3); arcs != nil {
		t.Errorf("Neighbors(3) = %v, want nil", arcs)
	}
}

func TestContains(t *testing.T) {
	g, err := Build(3, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for id, want := range map[int]bool{0: false, 1: true, 3: true, 4: false, -1: false} {
		if got := g.Contains(id); got != want {
			t.Errorf("Contains(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestEdgesCanonicalOrder(t *testing.T) {
	g, err := Build(3, []Edge{
		{From: 2, To: 1, Latency: 7},
		{From: 1, To: 3, Latency: 9},
		{From: 1, To: 2, Latency: 4},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []Edge{
		{From: 1, To: 2, Latency: 4},
		{From: 1, To: 3, Latency: 9},
		{From: 2, To: 1, Latency: 7},
	}
	got := g.Edges()
	if len(got) != len(want) {
		t.Fatalf("Edges() = %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Edges()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFingerprint(t *testing.T) {
	base := []Edge{
		{From: 1, To: 2, Latency: 100},
		{From: 2, To: 3, Latency: 50},
	}

	a, err := Build(3, base)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Reordered input plus a redundant higher-latency duplicate must hash
	// identically: the canonical form is the same.
	b, err := Build(3, []Edge{
		{From: 2, To: 3, Latency: 50},
		{From: 1, To: 2, Latency: 100},
		{From: 1, To: 2, Latency: 900},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprints differ for equivalent graphs")
	}

	c, err := Build(3, []Edge{{From: 1, To: 2, Latency: 100}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprints equal for different graphs")
	}
}
