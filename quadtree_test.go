package quadtree

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/nequadtree/quadtree/geom"
)

var (
	exampleBounds = geom.NewRect(geom.Pt(0, 0), geom.Pt(16, 16))
	examplePoints = []geom.Point{
		{X: 2, Y: 10}, {X: 6, Y: 14}, {X: 4, Y: 4}, {X: 9, Y: 1}, {X: 11, Y: 3}, {X: 10, Y: 6}, {X: 14, Y: 6}, {X: 13, Y: 3}, {X: 15, Y: 1},
	}
)

func leaves(t *testing.T, qt *QuadTree) []*QuadNode {
	t.Helper()
	var ls []*QuadNode
	err := qt.Traverse(func(depth int, n *QuadNode) error {
		if n.IsLeaf() {
			ls = append(ls, n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	return ls
}

func leafPoints(t *testing.T, qt *QuadTree) []geom.Point {
	t.Helper()
	var ps []geom.Point
	for _, l := range leaves(t, qt) {
		ps = append(ps, l.Points()...)
	}
	return ps
}

func samePoints(a, b []geom.Point) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return reflect.DeepEqual(geom.SortedCopy(a), geom.SortedCopy(b))
}

func checkShape(t *testing.T, qt *QuadTree) {
	t.Helper()
	err := qt.Traverse(func(depth int, n *QuadNode) error {
		if n.IsLeaf() {
			if len(n.Points()) > qt.MaxLeafSize() && !coincident(n.Points()) {
				t.Errorf("leaf %v holds %d points, max is %d", n.Bounds(), len(n.Points()), qt.MaxLeafSize())
			}
			return nil
		}
		if n.Points() != nil {
			t.Errorf("internal node %v holds points", n.Bounds())
		}
		for q := Low; q <= UpperRight; q++ {
			if n.Child(q) == nil {
				t.Errorf("internal node %v has no %v child", n.Bounds(), q)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
}

func randomPoints(r *rand.Rand, n, lo, hi int) []geom.Point {
	ps := make([]geom.Point, n)
	for i := range ps {
		ps[i] = geom.Pt(lo+r.Intn(hi-lo+1), lo+r.Intn(hi-lo+1))
	}
	return ps
}

func TestWorkedExample(t *testing.T) {
	qt, err := NewWithPoints(examplePoints, exampleBounds, 2)
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}

	if got := leafPoints(t, qt); !samePoints(got, examplePoints) {
		t.Errorf("leaves hold %v, want %v", got, examplePoints)
	}
	checkShape(t, qt)

	all, err := qt.Query(exampleBounds)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !samePoints(all, examplePoints) {
		t.Errorf("Query(%v) = %v, want all %d points", exampleBounds, all, len(examplePoints))
	}

	window := geom.NewRect(geom.Pt(9, 0), geom.Pt(16, 8))
	got, err := qt.Query(window)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	want := []geom.Point{{X: 9, Y: 1}, {X: 11, Y: 3}, {X: 10, Y: 6}, {X: 14, Y: 6}, {X: 13, Y: 3}, {X: 15, Y: 1}}
	if !samePoints(got, want) {
		t.Errorf("Query(%v) = %v, want %v", window, got, want)
	}
	if brute := window.Filter(examplePoints); !samePoints(got, brute) {
		t.Errorf("Query(%v) = %v, brute force gives %v", window, got, brute)
	}
}

func TestWorkedExampleShape(t *testing.T) {
	qt, err := NewWithPoints(examplePoints, exampleBounds, 2)
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}

	root := qt.Root()
	if root.IsLeaf() {
		t.Fatalf("root should be split")
	}
	var tests = []struct {
		q    Quadrant
		want []geom.Point
	}{
		{Low, []geom.Point{{X: 4, Y: 4}}},
		{UpperLeft, []geom.Point{{X: 2, Y: 10}, {X: 6, Y: 14}}},
		{UpperRight, nil},
	}
	for _, tt := range tests {
		c := root.Child(tt.q)
		if !c.IsLeaf() {
			t.Errorf("%v child should be a leaf", tt.q)
			continue
		}
		if got := c.Points(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%v child holds %v, want %v", tt.q, got, tt.want)
		}
	}

	lr := root.Child(LowerRight)
	if lr.IsLeaf() {
		t.Fatalf("lower-right child should be split")
	}
	if got, want := lr.Child(Low).Bounds(), geom.NewRect(geom.Pt(8, 0), geom.Pt(12, 4)); got != want {
		t.Errorf("lower-right/low bounds = %v, want %v", got, want)
	}

	s, err := qt.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := Stats{Nodes: 9, Leaves: 7, EmptyLeaves: 1, Points: 9, MaxDepth: 3, MaxLeafPoints: 2}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
}

func TestTieBreak(t *testing.T) {
	// The centre and the split lines belong to the first quadrant, in
	// quadrant order, whose rectangle contains them.
	ps := []geom.Point{{X: 8, Y: 8}, {X: 8, Y: 12}, {X: 12, Y: 8}, {X: 4, Y: 8}, {X: 8, Y: 4}, {X: 12, Y: 12}}
	qt, err := NewWithPoints(ps, exampleBounds, 1)
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}

	owner := map[geom.Point]geom.Rect{}
	for _, l := range leaves(t, qt) {
		for _, p := range l.Points() {
			owner[p] = l.Bounds()
		}
	}
	quads := exampleBounds.Quadrants()
	var tests = []struct {
		p geom.Point
		q Quadrant
	}{
		{geom.Pt(8, 8), Low},
		{geom.Pt(4, 8), Low},
		{geom.Pt(8, 4), Low},
		{geom.Pt(8, 12), UpperLeft},
		{geom.Pt(12, 8), LowerRight},
		{geom.Pt(12, 12), UpperRight},
	}
	for _, tt := range tests {
		b, ok := owner[tt.p]
		if !ok {
			t.Errorf("point %v not stored", tt.p)
			continue
		}
		// The owning leaf lies inside the expected quadrant of the root.
		if !quads[tt.q].Contains(b.Low) || !quads[tt.q].Contains(b.High) {
			t.Errorf("point %v stored in %v, want inside %v quadrant %v", tt.p, b, tt.q, quads[tt.q])
		}
	}
}

func TestRandomAgainstBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	bounds := geom.NewRect(geom.Pt(0, 0), geom.Pt(1000, 1000))

	for _, maxLeafSize := range []int{1, 4, 16} {
		// Some points fall outside of bounds and must be dropped.
		ps := randomPoints(r, 2000, -100, 1100)
		filtered := bounds.Filter(ps)

		qt, err := NewWithPoints(ps, bounds, maxLeafSize)
		if err != nil {
			t.Fatalf("expected nil error, got: %v", err)
		}
		if qt.Len() != len(filtered) {
			t.Errorf("Len() = %d, want %d", qt.Len(), len(filtered))
		}
		if got := leafPoints(t, qt); !samePoints(got, filtered) {
			t.Errorf("leaves hold %d points, want the %d filtered points", len(got), len(filtered))
		}

		all, err := qt.Query(bounds)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if !samePoints(all, filtered) {
			t.Errorf("Query(bounds) returned %d points, want %d", len(all), len(filtered))
		}

		for i := 0; i < 100; i++ {
			corners := randomPoints(r, 2, -50, 1050)
			a, b := corners[0], corners[1]
			window := geom.NewRect(geom.Pt(min(a.X, b.X), min(a.Y, b.Y)), geom.Pt(max(a.X, b.X), max(a.Y, b.Y)))
			got, err := qt.Query(window)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if want := window.Filter(filtered); !samePoints(got, want) {
				t.Errorf("Query(%v) returned %d points, brute force gives %d", window, len(got), len(want))
			}
			again, _ := qt.Query(window)
			if !reflect.DeepEqual(got, again) {
				t.Errorf("Query(%v) is not stable", window)
			}
			n, _ := qt.Count(window)
			if n != len(got) {
				t.Errorf("Count(%v) = %d, want %d", window, n, len(got))
			}
		}
	}
}

func TestLeafSizeInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	seen := map[geom.Point]bool{}
	var sparse []geom.Point
	for _, p := range randomPoints(r, 5000, -500, 500) {
		if !seen[p] {
			seen[p] = true
			sparse = append(sparse, p)
		}
	}

	// Every lattice point of the bounds, so the deepest leaves are 1x1
	// cells holding up to four distinct points.
	var grid []geom.Point
	for x := 0; x <= 15; x++ {
		for y := 0; y <= 15; y++ {
			grid = append(grid, geom.Pt(x, y))
		}
	}

	var tests = []struct {
		name   string
		points []geom.Point
		bounds geom.Rect
	}{
		{"sparse", sparse, geom.NewRect(geom.Pt(-500, -500), geom.Pt(500, 500))},
		{"grid", grid, geom.NewRect(geom.Pt(0, 0), geom.Pt(15, 15))},
		{"grid in larger bounds", grid, exampleBounds},
		{"unit cell", []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}, geom.NewRect(geom.Pt(0, 0), geom.Pt(1, 1))},
	}
	for _, tt := range tests {
		for _, maxLeafSize := range []int{1, 2, 3, 4, 5, 32} {
			qt, err := NewWithPoints(tt.points, tt.bounds, maxLeafSize)
			if err != nil {
				t.Fatalf("expected nil error, got: %v", err)
			}
			checkShape(t, qt)

			s, _ := qt.Stats()
			if s.MaxLeafPoints > maxLeafSize {
				t.Errorf("%s: MaxLeafPoints = %d with maxLeafSize %d", tt.name, s.MaxLeafPoints, maxLeafSize)
			}
			if got := leafPoints(t, qt); !samePoints(got, tt.points) {
				t.Errorf("%s: leaves hold %d points, want %d", tt.name, len(got), len(tt.points))
			}
		}
	}
}

func TestMixedPointsInUnitCell(t *testing.T) {
	bounds := geom.NewRect(geom.Pt(0, 0), geom.Pt(1, 1))
	ps := []geom.Point{{X: 1, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 1}}
	qt, err := NewWithPoints(ps, bounds, 1)
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	checkShape(t, qt)

	var tests = []struct {
		p    geom.Point
		want int
	}{
		{geom.Pt(0, 0), 1},
		{geom.Pt(0, 1), 1},
		{geom.Pt(1, 0), 1},
		{geom.Pt(1, 1), 5},
	}
	for _, tt := range tests {
		got, err := qt.Query(geom.NewRect(tt.p, tt.p))
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("Query(%v) returned %d points, want %d", tt.p, len(got), tt.want)
		}
	}

	// Only the coincident copies of (1,1) may share a leaf.
	for _, l := range leaves(t, qt) {
		if ps := l.Points(); len(ps) > 1 && (!coincident(ps) || ps[0] != geom.Pt(1, 1)) {
			t.Errorf("leaf %v holds %v", l.Bounds(), l.Points())
		}
	}
}

func TestFullIntRange(t *testing.T) {
	const maxInt, minInt = math.MaxInt, math.MinInt
	bounds := geom.NewRect(geom.Pt(minInt, minInt), geom.Pt(maxInt, maxInt))
	ps := []geom.Point{
		{X: minInt, Y: minInt}, {X: maxInt, Y: maxInt}, {X: minInt, Y: maxInt}, {X: maxInt, Y: minInt},
		{X: 0, Y: 0}, {X: -1, Y: -1}, {X: maxInt - 1, Y: maxInt},
	}
	qt, err := NewWithPoints(ps, bounds, 1)
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	checkShape(t, qt)

	s, _ := qt.Stats()
	if s.Leaves < len(ps) {
		t.Errorf("Stats() = %+v, want at least %d leaves", s, len(ps))
	}
	all, err := qt.Query(bounds)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !samePoints(all, ps) {
		t.Errorf("Query(bounds) = %v, want %v", all, ps)
	}
	window := geom.NewRect(geom.Pt(-1, -1), geom.Pt(maxInt, maxInt))
	got, _ := qt.Query(window)
	if want := window.Filter(ps); !samePoints(got, want) {
		t.Errorf("Query(%v) = %v, want %v", window, got, want)
	}
}

func TestCoincidentPoints(t *testing.T) {
	var tests = []struct {
		name   string
		bounds geom.Rect
		p      geom.Point
	}{
		{"interior", exampleBounds, geom.Pt(5, 5)},
		{"upper corner", exampleBounds, geom.Pt(16, 16)},
		{"centre", exampleBounds, geom.Pt(8, 8)},
		{"point bounds", geom.NewRect(geom.Pt(3, 3), geom.Pt(3, 3)), geom.Pt(3, 3)},
		{"line bounds", geom.NewRect(geom.Pt(0, 3), geom.Pt(16, 3)), geom.Pt(16, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := make([]geom.Point, 100)
			for i := range ps {
				ps[i] = tt.p
			}
			qt, err := NewWithPoints(ps, tt.bounds, 1)
			if err != nil {
				t.Fatalf("expected nil error, got: %v", err)
			}
			if got := leafPoints(t, qt); !samePoints(got, ps) {
				t.Errorf("leaves hold %d points, want %d", len(got), len(ps))
			}
			got, _ := qt.Query(geom.NewRect(tt.p, tt.p))
			if len(got) != len(ps) {
				t.Errorf("Query returned %d points, want %d", len(got), len(ps))
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	qt := New()
	for _, size := range []int{0, -1} {
		err := qt.Build(examplePoints, exampleBounds, size)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Build(maxLeafSize=%d) error = %v, want ErrInvalidConfig", size, err)
		}
	}
	if qt.Root() != nil {
		t.Errorf("failed Build should not create a root")
	}

	// A rejected rebuild keeps the previous tree.
	if err := qt.Build(examplePoints, exampleBounds, 2); err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	root := qt.Root()
	if err := qt.Build(nil, exampleBounds, 0); err == nil {
		t.Fatalf("expected error")
	}
	if qt.Root() != root || qt.Len() != len(examplePoints) {
		t.Errorf("rejected Build replaced the tree")
	}
}

func TestNotBuilt(t *testing.T) {
	qt := New()
	if _, err := qt.Query(exampleBounds); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Query error = %v, want ErrNotBuilt", err)
	}
	if _, err := qt.Count(exampleBounds); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Count error = %v, want ErrNotBuilt", err)
	}
	if err := qt.Traverse(func(int, *QuadNode) error { return nil }); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Traverse error = %v, want ErrNotBuilt", err)
	}
	if _, err := qt.Stats(); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Stats error = %v, want ErrNotBuilt", err)
	}
	if _, err := qt.Bounds(); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Bounds error = %v, want ErrNotBuilt", err)
	}
	if _, err := qt.QueryBatch(context.Background(), nil); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("QueryBatch error = %v, want ErrNotBuilt", err)
	}
}

func TestTrivialTrees(t *testing.T) {
	var tests = []struct {
		name   string
		points []geom.Point
		bounds geom.Rect
	}{
		{"no points", nil, exampleBounds},
		{"all outside", []geom.Point{{X: 20, Y: 20}, {X: -1, Y: 0}}, exampleBounds},
		{"inverted bounds", examplePoints, geom.NewRect(geom.Pt(16, 16), geom.Pt(0, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt, err := NewWithPoints(tt.points, tt.bounds, 2)
			if err != nil {
				t.Fatalf("expected nil error, got: %v", err)
			}
			root := qt.Root()
			if !root.IsLeaf() || len(root.Points()) != 0 {
				t.Errorf("want a single empty leaf, got %+v", root)
			}
			got, err := qt.Query(exampleBounds)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("Query() = %#v, want empty non-nil slice", got)
			}
		})
	}
}

func TestBuildDoesNotModifyInput(t *testing.T) {
	ps := append([]geom.Point{{X: 100, Y: 100}}, examplePoints...)
	orig := append([]geom.Point(nil), ps...)
	if _, err := NewWithPoints(ps, exampleBounds, 2); err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if !reflect.DeepEqual(ps, orig) {
		t.Errorf("Build modified its input: %v", ps)
	}
}

func TestRebuild(t *testing.T) {
	qt, err := NewWithPoints(examplePoints, exampleBounds, 2)
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	bounds := geom.NewRect(geom.Pt(0, 0), geom.Pt(4, 4))
	if err := qt.Build([]geom.Point{{X: 1, Y: 1}, {X: 5, Y: 5}}, bounds, 8); err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	got, _ := qt.Query(exampleBounds)
	if want := []geom.Point{{X: 1, Y: 1}}; !reflect.DeepEqual(got, want) {
		t.Errorf("Query after rebuild = %v, want %v", got, want)
	}
	if b, _ := qt.Bounds(); b != bounds {
		t.Errorf("Bounds() = %v, want %v", b, bounds)
	}
	if qt.MaxLeafSize() != 8 {
		t.Errorf("MaxLeafSize() = %d, want 8", qt.MaxLeafSize())
	}
}

func TestQueryBatch(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	bounds := geom.NewRect(geom.Pt(0, 0), geom.Pt(255, 255))
	qt, err := NewWithPoints(randomPoints(r, 3000, 0, 255), bounds, 8)
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}

	rects := make([]geom.Rect, 64)
	for i := range rects {
		x, y := r.Intn(200), r.Intn(200)
		rects[i] = geom.NewRect(geom.Pt(x, y), geom.Pt(x+r.Intn(56), y+r.Intn(56)))
	}
	got, err := qt.QueryBatch(context.Background(), rects)
	if err != nil {
		t.Fatalf("QueryBatch failed: %v", err)
	}
	for i, rect := range rects {
		want, _ := qt.Query(rect)
		if !reflect.DeepEqual(got[i], want) {
			t.Errorf("QueryBatch result %d differs from Query(%v)", i, rect)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := qt.QueryBatch(ctx, rects); !errors.Is(err, context.Canceled) {
		t.Errorf("QueryBatch with cancelled context error = %v, want context.Canceled", err)
	}
}

func BenchmarkBuild(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	bounds := geom.NewRect(geom.Pt(0, 0), geom.Pt(1<<16, 1<<16))
	ps := randomPoints(r, 100000, 0, 1<<16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewWithPoints(ps, bounds, 16); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkQuery(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	bounds := geom.NewRect(geom.Pt(0, 0), geom.Pt(1<<16, 1<<16))
	qt, err := NewWithPoints(randomPoints(r, 100000, 0, 1<<16), bounds, 16)
	if err != nil {
		b.Fatal(err)
	}
	window := geom.NewRect(geom.Pt(20000, 20000), geom.Pt(24000, 26000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := qt.Query(window); err != nil {
			b.Fatal(err)
		}
	}
}
