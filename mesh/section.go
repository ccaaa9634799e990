package mesh

import (
	"math"

	"github.com/soypat/slice/poly"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ZHeights returns the slicing plane heights for a mesh: the first plane
// sits firstLayerHeight above the lowest point, then one plane every
// layerHeight up to the mesh top. A zero-height mesh span yields a single
// plane or none; that is not an error.
func ZHeights(m *Mesh, firstLayerHeight, layerHeight float64) []float64 {
	zmin := m.Bounds().Min.Z
	zmax := m.Bounds().Max.Z
	var heights []float64
	for z := zmin + firstLayerHeight; z <= zmax+1e-6; z += layerHeight {
		heights = append(heights, z)
	}
	return heights
}

// Section intersects the mesh with the horizontal plane at height z and
// returns the resulting planar regions. Crossing segments are chained
// into closed loops by endpoint proximity and the loops repaired and
// normalized through the polygon kernel. A plane that misses the mesh
// returns an empty slice. Section is a pure function of (m, z) and safe
// to call concurrently.
func Section(m *Mesh, z float64) []poly.Region {
	span := m.Bounds().Max.Z - m.Bounds().Min.Z
	eps := math.Max(span*1e-6, 1e-9)

	var segments []poly.Segment
	for _, tr := range m.Triangles() {
		if s, ok := trianglePlane(tr, z, eps); ok {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return nil
	}
	loops := chainLoops(segments)
	if len(loops) == 0 {
		return nil
	}
	return poly.UnionContours(loops)
}

// trianglePlane intersects one triangle with the plane at height z.
// Vertices within eps of the plane count as lying on it. Triangles fully
// above, fully below, coplanar or touching in a single point contribute
// nothing.
func trianglePlane(tr r3.Triangle, z, eps float64) (poly.Segment, bool) {
	var pts []r2.Vec
	add := func(p r2.Vec) {
		for _, q := range pts {
			if math.Hypot(p.X-q.X, p.Y-q.Y) <= eps {
				return
			}
		}
		pts = append(pts, p)
	}
	on := func(v r3.Vec) bool { return math.Abs(v.Z-z) <= eps }

	for i := 0; i < 3; i++ {
		a, b := tr[i], tr[(i+1)%3]
		if on(a) {
			add(r2.Vec{X: a.X, Y: a.Y})
			continue
		}
		if on(b) {
			continue // picked up as the start of the next edge
		}
		if (a.Z < z) == (b.Z < z) {
			continue
		}
		alpha := (z - a.Z) / (b.Z - a.Z)
		add(r2.Vec{
			X: a.X + alpha*(b.X-a.X),
			Y: a.Y + alpha*(b.Y-a.Y),
		})
	}
	if len(pts) != 2 {
		return poly.Segment{}, false
	}
	return poly.Segment{pts[0], pts[1]}, true
}

// chainLoops joins intersection segments into closed contours by
// matching endpoints on a 1 micrometer grid. Open chains are degenerate
// and dropped.
func chainLoops(segments []poly.Segment) []poly.Contour {
	type key [2]int64
	quantize := func(v r2.Vec) key {
		const res = 1e3
		return key{int64(math.Round(v.X * res)), int64(math.Round(v.Y * res))}
	}
	ends := make(map[key][]int, 2*len(segments))
	for i, s := range segments {
		ends[quantize(s[0])] = append(ends[quantize(s[0])], i)
		ends[quantize(s[1])] = append(ends[quantize(s[1])], i)
	}
	used := make([]bool, len(segments))
	next := func(at key, self int) int {
		for _, i := range ends[at] {
			if !used[i] && i != self {
				return i
			}
		}
		return -1
	}

	var loops []poly.Contour
	for start, s := range segments {
		if used[start] {
			continue
		}
		used[start] = true
		loop := poly.Contour{s[0], s[1]}
		home := quantize(s[0])
		at := quantize(s[1])
		for at != home {
			i := next(at, -1)
			if i < 0 {
				loop = nil // open chain, drop it
				break
			}
			used[i] = true
			seg := segments[i]
			if quantize(seg[0]) == at {
				loop = append(loop, seg[1])
				at = quantize(seg[1])
			} else {
				loop = append(loop, seg[0])
				at = quantize(seg[0])
			}
		}
		if len(loop) >= 4 {
			loops = append(loops, loop[:len(loop)-1]) // drop closing duplicate
		} else if len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}
