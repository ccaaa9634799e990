// Package slice converts triangle meshes into per-layer 2D toolpaths:
// cross-sections, concentric walls, infill, top/bottom skins, brim and
// support, assembled into an ordered list of layers ready for motion
// program emission.
package slice

import (
	"math"

	"github.com/soypat/slice/poly"
)

// Wall is one closed perimeter path with the metadata the emitter needs
// to pick feed rates and print order.
type Wall struct {
	// Ring is the closed path. The first point is the seam position.
	Ring poly.Contour
	// Depth is the offset count from the region boundary: 0 is the
	// outermost wall.
	Depth int
	// Hole is set for rings tracing hole boundaries.
	Hole bool
}

// Layer holds every toolpath of one slicing plane. Layers are created
// once by the slicer and never mutated afterwards; the motion emitter and
// the estimators consume them read-only.
type Layer struct {
	Z         float64
	Index     int
	Walls     []Wall
	Infill    []poly.Segment
	TopBottom []poly.Segment
	Support   []poly.Segment
	Brim      []poly.Contour
}

// Empty reports whether the layer holds no toolpaths at all.
func (l *Layer) Empty() bool {
	return len(l.Walls) == 0 && len(l.Infill) == 0 && len(l.TopBottom) == 0 &&
		len(l.Support) == 0 && len(l.Brim) == 0
}

// WallLength returns the summed length of all closed wall paths.
func (l *Layer) WallLength() float64 {
	var sum float64
	for _, w := range l.Walls {
		sum += w.Ring.Perimeter()
	}
	return sum
}

// BrimLength returns the summed length of all brim loops.
func (l *Layer) BrimLength() float64 {
	var sum float64
	for _, c := range l.Brim {
		sum += c.Perimeter()
	}
	return sum
}

func segmentsLength(segs []poly.Segment) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.Length()
	}
	return sum
}

// PathLength returns the total toolpath length of the layer in mm.
func (l *Layer) PathLength() float64 {
	return l.WallLength() + l.BrimLength() +
		segmentsLength(l.Infill) + segmentsLength(l.TopBottom) + segmentsLength(l.Support)
}

// OuterWall returns the outermost non-hole wall of the layer, or nil.
// Spiralized emission stitches these rings into one helix.
func (l *Layer) OuterWall() *Wall {
	for i := range l.Walls {
		w := &l.Walls[i]
		if w.Depth == 0 && !w.Hole {
			return w
		}
	}
	return nil
}

// interiorAngle returns the interior angle at vertex i of the ring.
func interiorAngle(c poly.Contour, i int) float64 {
	n := len(c)
	prev, cur, next := c[(i+n-1)%n], c[i], c[(i+1)%n]
	ax, ay := prev.X-cur.X, prev.Y-cur.Y
	bx, by := next.X-cur.X, next.Y-cur.Y
	na, nb := math.Hypot(ax, ay), math.Hypot(bx, by)
	if na == 0 || nb == 0 {
		return math.Pi
	}
	cos := (ax*bx + ay*by) / (na * nb)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}
