package quadtree

import "github.com/nequadtree/quadtree/geom"

// Quadrant identifies one of the four children of an internal node. The
// declaration order is also the order in which a point on a shared edge is
// assigned to a child.
type Quadrant int

const (
	Low Quadrant = iota
	UpperLeft
	LowerRight
	UpperRight
)

func (q Quadrant) String() string {
	switch q {
	case Low:
		return "low"
	case UpperLeft:
		return "upper-left"
	case LowerRight:
		return "lower-right"
	case UpperRight:
		return "upper-right"
	default:
		return "invalid"
	}
}

// QuadNode is a node of a QuadTree. A leaf holds points, an internal node
// holds exactly four children and no points.
type QuadNode struct {
	bounds   geom.Rect
	points   []geom.Point
	children *[4]QuadNode
}

// Bounds returns the rectangle covered by the node.
func (n *QuadNode) Bounds() geom.Rect {
	return n.bounds
}

// IsLeaf reports whether n holds points instead of children.
func (n *QuadNode) IsLeaf() bool {
	return n.children == nil
}

// Points returns the points stored in a leaf. It returns nil for internal
// nodes. The returned slice must not be modified.
func (n *QuadNode) Points() []geom.Point {
	return n.points
}

// Child returns the child in quadrant q, or nil if n is a leaf.
func (n *QuadNode) Child(q Quadrant) *QuadNode {
	if n.children == nil || q < Low || q > UpperRight {
		return nil
	}
	return &n.children[q]
}

// split turns n into an internal node and distributes points over the new
// children. Each point goes to the first quadrant that contains it.
func (n *QuadNode) split(points []geom.Point) [4][]geom.Point {
	quads := n.bounds.Quadrants()
	n.children = &[4]QuadNode{}
	for i := range n.children {
		n.children[i].bounds = quads[i]
	}

	var parts [4][]geom.Point
	for _, p := range points {
		for i := range quads {
			if quads[i].Contains(p) {
				parts[i] = append(parts[i], p)
				break
			}
		}
	}
	return parts
}

// splittable reports whether splitting n can separate points. A quarter is
// only as large as its parent when the parent is at most 1x1, and such a
// quarter only receives copies of the parent's High corner. Splitting can
// therefore not loop forever once coincident point sets become leaves.
func (n *QuadNode) splittable(points []geom.Point) bool {
	return n.bounds.Valid() && !n.bounds.IsPoint() && !coincident(points)
}

// coincident reports whether all points are equal.
func coincident(points []geom.Point) bool {
	for _, p := range points {
		if p != points[0] {
			return false
		}
	}
	return true
}
