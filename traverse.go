package quadtree

import "errors"

// ErrSkipChildren can be returned by a TraverseFunc to skip the children of
// the node it was called with.
var ErrSkipChildren = errors.New("skip children")

// TraverseFunc is called for each node visited by Traverse. The root has
// depth 1.
type TraverseFunc func(depth int, n *QuadNode) error

// Traverse visits the tree depth-first, children in quadrant order. It stops
// at the first error returned by fn, other than ErrSkipChildren, and returns
// it.
func (t *QuadTree) Traverse(fn TraverseFunc) error {
	if t.root == nil {
		return ErrNotBuilt
	}
	return traverse(t.root, 1, fn)
}

func traverse(n *QuadNode, depth int, fn TraverseFunc) error {
	if err := fn(depth, n); err == ErrSkipChildren {
		return nil
	} else if err != nil {
		return err
	}
	if n.IsLeaf() {
		return nil
	}
	for i := range n.children {
		if err := traverse(&n.children[i], depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarises the shape of a built tree.
type Stats struct {
	Nodes         int
	Leaves        int
	EmptyLeaves   int
	Points        int
	MaxDepth      int
	MaxLeafPoints int
}

// Stats walks the tree and returns its Stats.
func (t *QuadTree) Stats() (Stats, error) {
	var s Stats
	err := t.Traverse(func(depth int, n *QuadNode) error {
		s.Nodes++
		s.MaxDepth = max(s.MaxDepth, depth)
		if !n.IsLeaf() {
			return nil
		}
		s.Leaves++
		s.Points += len(n.points)
		s.MaxLeafPoints = max(s.MaxLeafPoints, len(n.points))
		if len(n.points) == 0 {
			s.EmptyLeaves++
		}
		return nil
	})
	return s, err
}
