package geom

import (
	"strconv"

	"golang.org/x/exp/slices"
)

// Point is a 2D integer coordinate.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y int) Point {
	return Point{x, y}
}

// String returns the point formatted as (x,y).
func (p Point) String() string {
	return "(" + strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y) + ")"
}

// Compare orders points by X, then Y. It returns -1, 0 or +1.
func Compare(a, b Point) int {
	switch {
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	}
	return 0
}

// SortPoints sorts points in place by X, then Y.
func SortPoints(points []Point) {
	slices.SortFunc(points, Compare)
}

// SortedCopy returns a sorted copy of points, leaving the input untouched.
func SortedCopy(points []Point) []Point {
	c := slices.Clone(points)
	SortPoints(c)
	return c
}
