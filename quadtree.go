/*
Package quadtree implements a static point quadtree.

A QuadTree is bulk-loaded once from a point set and a bounding rectangle
and is read-only afterwards. Every internal node has exactly four children
covering the quarters of its rectangle, so window queries only descend
into the parts of the tree that overlap the query.

A built QuadTree is safe for concurrent queries. Build must not run
concurrently with any other method.
*/
package quadtree

import (
	"errors"
	"fmt"

	"github.com/nequadtree/quadtree/geom"
)

var (
	// ErrInvalidConfig is returned by Build when maxLeafSize is below 1.
	ErrInvalidConfig = errors.New("invalid quadtree configuration")

	// ErrNotBuilt is returned when a tree is used before Build succeeded.
	ErrNotBuilt = errors.New("quadtree not built")
)

// QuadTree is a point quadtree.
type QuadTree struct {
	root        *QuadNode
	maxLeafSize int
	size        int
}

// New returns an empty QuadTree. It must be built before it can be queried.
func New() *QuadTree {
	return &QuadTree{}
}

// NewWithPoints creates a QuadTree and builds it from points.
func NewWithPoints(points []geom.Point, bounds geom.Rect,
	maxLeafSize int) (*QuadTree, error) {
	t := New()
	if err := t.Build(points, bounds, maxLeafSize); err != nil {
		return nil, err
	}
	return t, nil
}

// Build replaces the contents of the tree with the points of points that lie
// inside bounds. Points outside bounds are dropped. Leaves hold at most
// maxLeafSize points, except leaves whose points are all coincident, which
// may hold any number of copies of a single point.
//
// Build fails only when maxLeafSize is below 1, in which case the tree is
// left unchanged. The points slice is never modified.
func (t *QuadTree) Build(points []geom.Point, bounds geom.Rect, maxLeafSize int) error {
	if maxLeafSize < 1 {
		return fmt.Errorf("maxLeafSize must be >= 1, got %d: %w", maxLeafSize, ErrInvalidConfig)
	}

	filtered := bounds.Filter(points)
	root := &QuadNode{bounds: bounds}

	type pending struct {
		node   *QuadNode
		points []geom.Point
	}

	// Expanded from a work list rather than by recursion.
	work := []pending{{root, filtered}}
	for len(work) != 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]

		if len(next.points) <= maxLeafSize || !next.node.splittable(next.points) {
			next.node.points = next.points
			continue
		}

		parts := next.node.split(next.points)
		for i := range next.node.children {
			work = append(work, pending{&next.node.children[i], parts[i]})
		}
	}

	t.root = root
	t.maxLeafSize = maxLeafSize
	t.size = len(filtered)
	return nil
}

// Query returns all points of the tree that lie inside r, boundary included.
// Points are returned in depth-first order of the leaves holding them, which
// is stable for a given tree and query.
func (t *QuadTree) Query(r geom.Rect) ([]geom.Point, error) {
	if t.root == nil {
		return nil, ErrNotBuilt
	}
	results := []geom.Point{}
	t.search(r, func(p geom.Point) {
		results = append(results, p)
	})
	return results, nil
}

// Count returns the number of points inside r without collecting them.
func (t *QuadTree) Count(r geom.Rect) (int, error) {
	if t.root == nil {
		return 0, ErrNotBuilt
	}
	n := 0
	t.search(r, func(geom.Point) { n++ })
	return n, nil
}

// search calls fn for every stored point inside r. Subtrees whose bounds do
// not intersect r are skipped.
func (t *QuadTree) search(r geom.Rect, fn func(geom.Point)) {
	stack := []*QuadNode{t.root}
	for len(stack) != 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.bounds.Intersects(r) {
			continue
		}
		if n.IsLeaf() {
			// A leaf may straddle the edge of r, so every point is checked.
			for _, p := range n.points {
				if r.Contains(p) {
					fn(p)
				}
			}
			continue
		}
		// Pushed in reverse so that the low quadrant is visited first.
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, &n.children[i])
		}
	}
}

// Root returns the root node, or nil if the tree has not been built.
func (t *QuadTree) Root() *QuadNode {
	return t.root
}

// Bounds returns the rectangle the tree was built with.
func (t *QuadTree) Bounds() (geom.Rect, error) {
	if t.root == nil {
		return geom.Rect{}, ErrNotBuilt
	}
	return t.root.bounds, nil
}

// Len returns the number of points stored in the tree.
func (t *QuadTree) Len() int {
	return t.size
}

// MaxLeafSize returns the split threshold the tree was built with.
func (t *QuadTree) MaxLeafSize() int {
	return t.maxLeafSize
}
