package geom

// Rect is an axis-aligned rectangle. Low holds the minimum coordinates and
// High the maximum ones. Both edges are part of the rectangle.
type Rect struct {
	Low, High Point
}

// NewRect creates a Rect from its corners. The corners are not normalized, a
// rectangle with Low > High on an axis contains no points.
func NewRect(low, high Point) Rect {
	return Rect{low, high}
}

// Width returns the width of the Rect. It overflows for rectangles spanning
// more than half of the int range; the quadtree itself never uses it.
func (r Rect) Width() int {
	return r.High.X - r.Low.X
}

// Height returns the height of the Rect. See Width for its range.
func (r Rect) Height() int {
	return r.High.Y - r.Low.Y
}

// Valid reports whether Low <= High on both axes.
func (r Rect) Valid() bool {
	return r.Low.X <= r.High.X && r.Low.Y <= r.High.Y
}

// Contains returns true if p lies inside r or on its boundary.
func (r Rect) Contains(p Point) bool {
	return r.Low.X <= p.X && p.X <= r.High.X &&
		r.Low.Y <= p.Y && p.Y <= r.High.Y
}

// Intersects returns true if r and o overlap. Rectangles that only share an
// edge or a corner intersect.
func (r Rect) Intersects(o Rect) bool {
	return max(r.Low.X, o.Low.X) <= min(r.High.X, o.High.X) &&
		max(r.Low.Y, o.Low.Y) <= min(r.High.Y, o.High.Y)
}

// Mid returns the floor midpoint of r. It does not overflow for any pair of
// int coordinates.
func (r Rect) Mid() Point {
	return Point{floorMid(r.Low.X, r.High.X), floorMid(r.Low.Y, r.High.Y)}
}

// floorMid returns floor((a+b)/2). Arithmetic shifts round towards negative
// infinity, the last term adds back the carry of two odd halves.
func floorMid(a, b int) int {
	return a>>1 + b>>1 + a&b&1
}

// IsPoint reports whether r has zero width and zero height.
func (r Rect) IsPoint() bool {
	return r.Low == r.High
}

// Quadrants splits r at its midpoint into the low, upper-left, lower-right
// and upper-right quarters. Neighbouring quarters share the split lines.
func (r Rect) Quadrants() [4]Rect {
	m := r.Mid()
	return [4]Rect{
		{r.Low, m},
		{Point{r.Low.X, m.Y}, Point{m.X, r.High.Y}},
		{Point{m.X, r.Low.Y}, Point{r.High.X, m.Y}},
		{m, r.High},
	}
}

// Expand grows r so that it contains p.
func (r *Rect) Expand(p Point) {
	r.Low.X = min(r.Low.X, p.X)
	r.Low.Y = min(r.Low.Y, p.Y)
	r.High.X = max(r.High.X, p.X)
	r.High.Y = max(r.High.Y, p.Y)
}

// Extent returns the smallest Rect containing all points. The second return
// value is false when points is empty.
func Extent(points []Point) (Rect, bool) {
	if len(points) == 0 {
		return Rect{}, false
	}
	r := Rect{points[0], points[0]}
	for _, p := range points[1:] {
		r.Expand(p)
	}
	return r, true
}

// String returns the rectangle as [low,high].
func (r Rect) String() string {
	return "[" + r.Low.String() + "," + r.High.String() + "]"
}

// Filter returns the points of ps contained in r, in their original order.
// ps is not modified.
func (r Rect) Filter(ps []Point) []Point {
	out := make([]Point, 0, len(ps))
	for _, p := range ps {
		if r.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}
