// Package poly implements the 2D polygon kernel used by the slicing
// pipeline: polygon-with-holes regions, boolean union, signed offsetting
// and clipping of open line segments against filled regions.
//
// All coordinates are millimeters. Operations are backed by an integer
// polygon clipper; floats are scaled to a 1 micrometer grid at the
// package boundary.
package poly

import (
	"math"

	"github.com/soypat/slice/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is a single toolpath line between two points.
type Segment [2]r2.Vec

// Length returns the euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(s[1].X-s[0].X, s[1].Y-s[0].Y)
}

// Contour is an ordered closed ring of points. The closing edge from the
// last point back to the first is implicit.
type Contour []r2.Vec

// Area returns the signed area of the contour. Counter-clockwise
// contours have positive area.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum float64
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// Perimeter returns the total length of the contour including the
// implicit closing edge.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	var sum float64
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += math.Hypot(q.X-p.X, q.Y-p.Y)
	}
	return sum
}

// BoundingBox returns the axis aligned bounding box of the contour.
func (c Contour) BoundingBox() d2.Box {
	if len(c) == 0 {
		return d2.Box{}
	}
	set := d2.Set(c)
	return d2.Box{Min: set.Min(), Max: set.Max()}
}

// Reverse reverses the winding of the contour in place.
func (c Contour) Reverse() {
	for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
		c[i], c[j] = c[j], c[i]
	}
}

// Region is a polygon with holes: one outer contour wound
// counter-clockwise plus zero or more hole contours wound clockwise,
// all holes strictly inside the outer contour.
type Region struct {
	Outer Contour
	Holes []Contour
}

// Empty reports whether the region encloses no area.
func (r Region) Empty() bool {
	return len(r.Outer) < 3
}

// Area returns the enclosed area of the region, hole areas subtracted.
func (r Region) Area() float64 {
	a := math.Abs(r.Outer.Area())
	for _, h := range r.Holes {
		a -= math.Abs(h.Area())
	}
	return a
}

// BoundingBox returns the axis aligned bounding box of the outer contour.
func (r Region) BoundingBox() d2.Box {
	return r.Outer.BoundingBox()
}

// Normalize enforces the winding invariant: outer counter-clockwise,
// holes clockwise.
func (r *Region) Normalize() {
	if r.Outer.Area() < 0 {
		r.Outer.Reverse()
	}
	for _, h := range r.Holes {
		if h.Area() > 0 {
			h.Reverse()
		}
	}
}

// LargestRegion returns the region with the largest enclosed area, or an
// empty region for empty input.
func LargestRegion(rs []Region) (largest Region) {
	best := math.Inf(-1)
	for _, r := range rs {
		if a := r.Area(); a > best {
			best = a
			largest = r
		}
	}
	return largest
}

// TotalArea returns the summed area of all regions.
func TotalArea(rs []Region) float64 {
	var a float64
	for _, r := range rs {
		a += r.Area()
	}
	return a
}
