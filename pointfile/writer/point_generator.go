package writer

import "github.com/nequadtree/quadtree/geom"

// PointGenerator is an interface for generating points.
type PointGenerator interface {
	// Generate returns the next point. The second return value is false
	// when there are no more points to generate.
	Generate() (geom.Point, bool)
}

// SliceGenerator generates the points of a slice in order.
type SliceGenerator struct {
	Points []geom.Point
	idx    int
}

var _ PointGenerator = (*SliceGenerator)(nil)

func (g *SliceGenerator) Generate() (geom.Point, bool) {
	if g.idx >= len(g.Points) {
		return geom.Point{}, false
	}
	p := g.Points[g.idx]
	g.idx++
	return p, true
}
