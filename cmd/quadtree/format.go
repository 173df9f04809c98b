package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tidwall/grect"

	"github.com/nequadtree/quadtree"
	"github.com/nequadtree/quadtree/geom"
)

// parseRect parses anything grect understands ("[x y],[x y]", WKT or
// GeoJSON) and returns its bounding box rounded outwards to integers.
func parseRect(s string) (geom.Rect, error) {
	r := grect.Get(s)
	if len(r.Min) < 2 || len(r.Max) < 2 {
		return geom.Rect{}, fmt.Errorf("%q is not a 2D rectangle", s)
	}
	return geom.NewRect(
		geom.Pt(int(math.Floor(r.Min[0])), int(math.Floor(r.Min[1]))),
		geom.Pt(int(math.Ceil(r.Max[0])), int(math.Ceil(r.Max[1]))),
	), nil
}

func formatPoints(ps []geom.Point) string {
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = p.String()
	}
	return strings.Join(s, " ")
}

// printTree writes one line per node, depth-first. Each line starts with the
// depth in angle brackets; leaves add one dash per level and their points.
func printTree(w io.Writer, qt *quadtree.QuadTree) error {
	return qt.Traverse(func(depth int, n *quadtree.QuadNode) error {
		var err error
		if n.IsLeaf() {
			_, err = fmt.Fprintf(w, "<%d>%s%s\n", depth, strings.Repeat("-", depth), formatPoints(n.Points()))
		} else {
			_, err = fmt.Fprintf(w, "<%d>\n", depth)
		}
		return err
	})
}
