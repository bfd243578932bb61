package engine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/matzehuels/latmesh/pkg/cache"
	"github.com/matzehuels/latmesh/pkg/graph"
)

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

func TestMinLatency(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		src, dst int
		want     int64
		wantErr  error
	}{
		{name: "ViaRelay", src: 1, dst: 3, want: 200},
		{name: "ToFarthest", src: 1, dst: 4, want: 400},
		{name: "SelfIsZero", src: 2, dst: 2, want: 0},
		{name: "NoReverseRoute", src: 3, dst: 1, wantErr: ErrNoRoute},
		{name: "SourceOutOfRange", src: 0, dst: 2, wantErr: ErrNodeOutOfRange},
		{name: "TargetOutOfRange", src: 1, dst: 9, wantErr: ErrNodeOutOfRange},
		{name: "ForcedAllPairs", opts: Options{ForceAllPairs: true}, src: 1, dst: 4, want: 400},
		{name: "ForcedAllPairsNoRoute", opts: Options{ForceAllPairs: true}, src: 4, dst: 1, wantErr: ErrNoRoute},
		{name: "Ephemeral", opts: Options{Ephemeral: true}, src: 1, dst: 3, want: 200},
		{name: "EphemeralNoRoute", opts: Options{Ephemeral: true}, src: 3, dst: 2, wantErr: ErrNoRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(referenceMesh(t), tt.opts)
			got, err := e.MinLatency(context.Background(), tt.src, tt.dst)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MinLatency(%d,%d) error = %v, want %v", tt.src, tt.dst, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MinLatency(%d,%d): %v", tt.src, tt.dst, err)
			}
			if got != tt.want {
				t.Errorf("MinLatency(%d,%d) = %d, want %d", tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		src, dst  int
		wantNodes []int
		wantLat   int64
		wantErr   error
	}{
		{name: "ToFarthest", src: 1, dst: 4, wantNodes: []int{1, 2, 3, 4}, wantLat: 400},
		{name: "ViaRelay", src: 1, dst: 3, wantNodes: []int{1, 2, 3}, wantLat: 200},
		{name: "SelfIsSingleNode", src: 2, dst: 2, wantNodes: []int{2}, wantLat: 0},
		{name: "NoRoute", src: 4, dst: 1, wantErr: ErrNoRoute},
		{name: "OutOfRange", src: -1, dst: 1, wantErr: ErrNodeOutOfRange},
		{name: "EphemeralEarlyExit", opts: Options{Ephemeral: true}, src: 1, dst: 3, wantNodes: []int{1, 2, 3}, wantLat: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(referenceMesh(t), tt.opts)
			route, err := e.Path(context.Background(), tt.src, tt.dst)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Path(%d,%d) error = %v, want %v", tt.src, tt.dst, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Path(%d,%d): %v", tt.src, tt.dst, err)
			}
			if !slices.Equal(route.Nodes, tt.wantNodes) {
				t.Errorf("Path(%d,%d).Nodes = %v, want %v", tt.src, tt.dst, route.Nodes, tt.wantNodes)
			}
			if route.Latency != tt.wantLat {
				t.Errorf("Path(%d,%d).Latency = %d, want %d", tt.src, tt.dst, route.Latency, tt.wantLat)
			}
		})
	}
}

func TestDistancesFrom(t *testing.T) {
	e := New(referenceMesh(t), Options{})

	got, err := e.DistancesFrom(context.Background(), 1)
	if err != nil {
		t.Fatalf("DistancesFrom: %v", err)
	}
	want := map[int]int64{1: 0, 2: 100, 3: 200, 4: 400}
	if len(got) != len(want) {
		t.Fatalf("DistancesFrom covers %d nodes, want %d", len(got), len(want))
	}
	for v, d := range want {
		if got[v] != d {
			t.Errorf("distance to %d = %d, want %d", v, got[v], d)
		}
	}

	if _, err := e.DistancesFrom(context.Background(), 99); !errors.Is(err, ErrNodeOutOfRange) {
		t.Errorf("DistancesFrom(99) error = %v, want ErrNodeOutOfRange", err)
	}
}

// An ephemeral engine answers full-table queries without retaining the
// solved tree.
func TestDistancesFromEphemeralNoRetention(t *testing.T) {
	e := New(referenceMesh(t), Options{Ephemeral: true})

	got, err := e.DistancesFrom(context.Background(), 1)
	if err != nil {
		t.Fatalf("DistancesFrom: %v", err)
	}
	want := map[int]int64{1: 0, 2: 100, 3: 200, 4: 400}
	for v, d := range want {
		if got[v] != d {
			t.Errorf("distance to %d = %d, want %d", v, got[v], d)
		}
	}

	e.mu.RLock()
	retained := len(e.trees)
	e.mu.RUnlock()
	if retained != 0 {
		t.Errorf("ephemeral engine retained %d trees, want 0", retained)
	}
}

// TestQueryIdempotence checks that repeated queries return identical
// results to the uncached first call, before and after promotion.
func TestQueryIdempotence(t *testing.T) {
	e := New(referenceMesh(t), Options{PromoteAfter: 2, AllPairsMaxNodes: 16})
	ctx := context.Background()

	first, err := e.MinLatency(ctx, 1, 4)
	if err != nil {
		t.Fatalf("MinLatency: %v", err)
	}

	// Touch enough distinct sources to cross the promotion threshold.
	for _, src := range []int{1, 2, 3} {
		if _, err := e.DistancesFrom(ctx, src); err != nil {
			t.Fatalf("DistancesFrom(%d): %v", src, err)
		}
	}
	if e.currentMatrix() == nil {
		t.Fatal("engine did not promote to all-pairs after threshold")
	}

	for i := 0; i < 3; i++ {
		got, err := e.MinLatency(ctx, 1, 4)
		if err != nil {
			t.Fatalf("repeat MinLatency: %v", err)
		}
		if got != first {
			t.Errorf("repeat MinLatency = %d, want %d", got, first)
		}
	}
}

func TestNoPromotionAboveNodeCap(t *testing.T) {
	e := New(referenceMesh(t), Options{PromoteAfter: 1, AllPairsMaxNodes: 2})
	ctx := context.Background()

	for _, src := range []int{1, 2, 3, 4} {
		if _, err := e.DistancesFrom(ctx, src); err != nil {
			t.Fatalf("DistancesFrom(%d): %v", src, err)
		}
	}
	if e.currentMatrix() != nil {
		t.Error("engine promoted despite node count above cap")
	}
}

// TestPersistentCacheRoundTrip checks that a second engine over the
// same mesh reuses the first engine's persisted route tables, and that
// a rebuilt mesh with different edges does not.
func TestPersistentCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer store.Close()

	a := New(referenceMesh(t), Options{Cache: store})
	if _, err := a.MinLatency(ctx, 1, 4); err != nil {
		t.Fatalf("MinLatency: %v", err)
	}

	// Same mesh, fresh engine: must hit the persisted table and agree.
	b := New(referenceMesh(t), Options{Cache: store})
	d, err := b.MinLatency(ctx, 1, 4)
	if err != nil {
		t.Fatalf("MinLatency (cached): %v", err)
	}
	if d != 400 {
		t.Errorf("cached MinLatency = %d, want 400", d)
	}
	route, err := b.Path(ctx, 1, 4)
	if err != nil {
		t.Fatalf("Path (cached): %v", err)
	}
	if want := []int{1, 2, 3, 4}; !slices.Equal(route.Nodes, want) {
		t.Errorf("cached Path = %v, want %v", route.Nodes, want)
	}

	// Different edge set: different fingerprint, so the old table must
	// not be consulted.
	g2, err := graph.Build(4, []graph.Edge{{From: 1, To: 4, Latency: 50}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c := New(g2, Options{Cache: store})
	d2, err := c.MinLatency(ctx, 1, 4)
	if err != nil {
		t.Fatalf("MinLatency (rebuilt): %v", err)
	}
	if d2 != 50 {
		t.Errorf("rebuilt MinLatency = %d, want 50", d2)
	}
}

// TestConcurrentQueries exercises the compute-if-absent path from many
// goroutines. The race detector guards the shared maps; the assertions
// guard the answers.
func TestConcurrentQueries(t *testing.T) {
	e := New(referenceMesh(t), Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, q := range []struct {
				src, dst int
				want     int64
			}{
				{1, 4, 400}, {1, 3, 200}, {2, 4, 300}, {2, 2, 0},
			} {
				got, err := e.MinLatency(ctx, q.src, q.dst)
				if err != nil {
					errs <- err
					return
				}
				if got != q.want {
					errs <- errors.New("wrong concurrent answer")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent query: %v", err)
	}
}
