package partitions

import (
	"reflect"
	"testing"

	"github.com/fdtdgo/decomp/geom"
)

func buildLayout(t *testing.T, root geom.Volume, n int, opts LayoutOptions) *ChunkLayout {
	t.Helper()
	b := &BisectionBuilder{Cost: UniformCost{}}
	tree, err := b.Build(root, n)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	cl, err := NewChunkLayout(tree, UniformCost{}, opts)
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	return cl
}

// The worked example: 100x100 cells, uniform cost, N=4, W=4 gives four
// 50x50 chunks on distinct workers, edge neighbors connected, diagonals not
func TestChunkLayout_UniformQuadrants(t *testing.T) {
	root := geom.Box([]int{0, 0}, []int{100, 100})
	cl := buildLayout(t, root, 4, LayoutOptions{NumWorkers: 4})

	if len(cl.Chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(cl.Chunks))
	}
	if err := cl.Validate(); err != nil {
		t.Fatalf("layout invalid: %v", err)
	}

	seen := make(map[int]bool)
	for _, c := range cl.Chunks {
		if c.Volume.Extent(0) != 50 || c.Volume.Extent(1) != 50 {
			t.Errorf("chunk %d is %v, expected 50x50", c.ID, c.Volume)
		}
		if c.Cost != 2500 {
			t.Errorf("chunk %d cost %g, expected 2500", c.ID, c.Cost)
		}
		if seen[c.Owner] {
			t.Errorf("worker %d owns more than one chunk", c.Owner)
		}
		seen[c.Owner] = true
	}

	// Pre-order leaves: 0=(lo,lo) 1=(lo,hi) 2=(hi,lo) 3=(hi,hi);
	// diagonals 0-3 and 1-2 must not appear
	wantNeighbors := map[int][]int{
		0: {1, 2},
		1: {0, 3},
		2: {0, 3},
		3: {1, 2},
	}
	for _, c := range cl.Chunks {
		if !reflect.DeepEqual(c.Neighbors, wantNeighbors[c.ID]) {
			t.Errorf("chunk %d neighbors %v, want %v", c.ID, c.Neighbors, wantNeighbors[c.ID])
		}
	}

	// Shared faces are 50 cells long; diagonal pairs exchange nothing
	if got := cl.CommVolume(0, 1); got != 50 {
		t.Errorf("comm volume 0-1 = %d, want 50", got)
	}
	if got := cl.CommVolume(0, 3); got != 0 {
		t.Errorf("comm volume 0-3 = %d, want 0", got)
	}
}

func TestChunkLayout_PeriodicNeighbors(t *testing.T) {
	root := geom.Box([]int{0, 0}, []int{100, 100})

	t.Run("NonPeriodic", func(t *testing.T) {
		cl := buildLayout(t, root, 4, LayoutOptions{NumWorkers: 4})
		// Chunks 0 and 2 sit at opposite x ends of the bottom row only
		// via the 0-2 interior face; nothing wraps
		if got := cl.CommVolume(1, 0); got != 50 {
			t.Errorf("interior comm volume = %d, want 50", got)
		}
	})

	t.Run("PeriodicX", func(t *testing.T) {
		// Four vertical strips: with x periodic, the first and last strips
		// become neighbors through the wrap
		strips := buildLayout(t, geom.Box([]int{0, 0}, []int{400, 10}), 4,
			LayoutOptions{NumWorkers: 4, Periodic: []bool{true, false}})
		first, last := &strips.Chunks[0], &strips.Chunks[3]
		found := false
		for _, nb := range first.Neighbors {
			if nb == last.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("chunk 0 neighbors %v, expected wrap neighbor %d", first.Neighbors, last.ID)
		}
		if got := strips.CommVolume(first.ID, last.ID); got != 10 {
			t.Errorf("wrap comm volume = %d, want 10", got)
		}
	})
}

func TestGreedyLoaded_SkewedCosts(t *testing.T) {
	// One chunk holding 90% of the cost among 8 chunks on 4 workers: the
	// heavy chunk must sit alone while idler workers absorb the rest
	costs := []float64{90, 2, 2, 2, 1, 1, 1, 1}
	owners := GreedyLoaded{}.Assign(costs, 4)

	heavyOwner := owners[0]
	for i := 1; i < len(costs); i++ {
		if owners[i] == heavyOwner {
			t.Errorf("chunk %d (cost %g) shares worker %d with the heavy chunk while idlers exist",
				i, costs[i], heavyOwner)
		}
	}
}

func TestGreedyLoaded_BeatsRoundRobin(t *testing.T) {
	costs := []float64{50, 40, 30, 20, 10, 5, 3, 2}

	spread := func(owners []int) float64 {
		loads := make([]float64, 4)
		for i, w := range owners {
			loads[w] += costs[i]
		}
		lo, hi := loads[0], loads[0]
		for _, l := range loads[1:] {
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
		return hi - lo
	}

	greedy := spread(GreedyLoaded{}.Assign(costs, 4))
	rrSpread := spread(RoundRobinAssign{}.Assign(costs, 4))
	if greedy >= rrSpread {
		t.Errorf("greedy spread %g not better than round-robin %g", greedy, rrSpread)
	}
}

func TestChunkLayout_WorkerOverflow(t *testing.T) {
	root := geom.Box([]int{0, 0}, []int{100, 100})
	b := &BisectionBuilder{Cost: UniformCost{}}
	tree, err := b.Build(root, 2)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	t.Run("Rejected", func(t *testing.T) {
		_, err := NewChunkLayout(tree, UniformCost{}, LayoutOptions{NumWorkers: 8})
		if err == nil {
			t.Fatal("expected infeasible assignment error")
		}
		assertIs(t, err, ErrInfeasibleAssignment)
	})

	t.Run("ExplicitlyAllowed", func(t *testing.T) {
		cl, err := NewChunkLayout(tree, UniformCost{}, LayoutOptions{
			NumWorkers: 8, AllowIdleWorkers: true,
		})
		if err != nil {
			t.Fatalf("layout failed: %v", err)
		}
		loads := cl.WorkerLoads()
		busy := 0
		for _, l := range loads {
			if l > 0 {
				busy++
			}
		}
		if busy != 2 {
			t.Errorf("expected 2 busy workers, got %d", busy)
		}
	})
}

func TestChunkLayout_Unassigned(t *testing.T) {
	root := geom.Box([]int{0}, []int{16})
	cl := buildLayout(t, root, 4, LayoutOptions{})
	for _, c := range cl.Chunks {
		if c.Owner != Unassigned {
			t.Errorf("chunk %d owner %d, expected unassigned", c.ID, c.Owner)
		}
	}
}

func TestChunkLayout_OwnedBy(t *testing.T) {
	root := geom.Box([]int{0, 0}, []int{80, 80})
	cl := buildLayout(t, root, 8, LayoutOptions{NumWorkers: 4})

	total := 0
	for w := 0; w < 4; w++ {
		ids := cl.OwnedBy(w)
		total += len(ids)
		for _, id := range ids {
			if cl.Chunks[id].Owner != w {
				t.Errorf("chunk %d listed for worker %d but owned by %d", id, w, cl.Chunks[id].Owner)
			}
		}
	}
	if total != 8 {
		t.Errorf("ownership covers %d chunks, expected 8", total)
	}
}

func TestChunkLayout_ChunkAt(t *testing.T) {
	root := geom.Box([]int{0, 0}, []int{100, 100})
	cl := buildLayout(t, root, 4, LayoutOptions{NumWorkers: 4})

	// Every corner cell of every chunk resolves back to that chunk
	for _, c := range cl.Chunks {
		if got := cl.ChunkAt([]int{c.Volume.Min[0], c.Volume.Min[1]}); got != c.ID {
			t.Errorf("min corner of chunk %d resolves to %d", c.ID, got)
		}
		if got := cl.ChunkAt([]int{c.Volume.Max[0] - 1, c.Volume.Max[1] - 1}); got != c.ID {
			t.Errorf("max corner of chunk %d resolves to %d", c.ID, got)
		}
	}
	if got := cl.ChunkAt([]int{100, 0}); got != -1 {
		t.Errorf("cell outside the domain resolves to %d", got)
	}
	if got := cl.ChunkAt([]int{-1, 50}); got != -1 {
		t.Errorf("cell outside the domain resolves to %d", got)
	}
}

func TestChunkLayout_Statistics(t *testing.T) {
	root := geom.Box([]int{0, 0}, []int{100, 100})
	cl := buildLayout(t, root, 4, LayoutOptions{NumWorkers: 2})

	s := cl.Statistics()
	if s.NumChunks != 4 || s.NumWorkers != 2 {
		t.Errorf("stats counts wrong: %+v", s)
	}
	if s.MeanChunkCost != 2500 || s.Imbalance != 1 {
		t.Errorf("uniform layout should be perfectly balanced: %+v", s)
	}
	if s.MaxWorkerLoad != 5000 || s.MinWorkerLoad != 5000 {
		t.Errorf("worker loads should be equal: %+v", s)
	}
}

func TestChunkLayout_Determinism(t *testing.T) {
	root := geom.Box([]int{0, 0, 0}, []int{60, 40, 20})
	var first *ChunkLayout
	for run := 0; run < 5; run++ {
		cl := buildLayout(t, root, 7, LayoutOptions{NumWorkers: 3, Periodic: []bool{true, false, false}})
		if first == nil {
			first = cl
			continue
		}
		if !reflect.DeepEqual(first.Chunks, cl.Chunks) {
			t.Fatalf("run %d produced different chunks", run)
		}
		for i := range first.Chunks {
			for j := range first.Chunks {
				if first.CommVolume(i, j) != cl.CommVolume(i, j) {
					t.Fatalf("run %d: comm volume (%d,%d) differs", run, i, j)
				}
			}
		}
	}
}
