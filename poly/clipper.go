package poly

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// unitsPerMM is the integer clipper resolution: 1 unit = 1 micrometer.
const unitsPerMM = 1000

func toPath(c Contour) clipper.Path {
	p := make(clipper.Path, len(c))
	for i, v := range c {
		p[i] = &clipper.IntPoint{
			X: clipper.CInt(math.Round(v.X * unitsPerMM)),
			Y: clipper.CInt(math.Round(v.Y * unitsPerMM)),
		}
	}
	return p
}

func fromPath(p clipper.Path) Contour {
	c := make(Contour, len(p))
	for i, ip := range p {
		c[i].X = float64(ip.X) / unitsPerMM
		c[i].Y = float64(ip.Y) / unitsPerMM
	}
	return c
}

func addRegionPaths(add func(clipper.Path), rs ...Region) (n int) {
	for _, r := range rs {
		if r.Empty() {
			continue
		}
		add(toPath(r.Outer))
		n++
		for _, h := range r.Holes {
			if len(h) >= 3 {
				add(toPath(h))
				n++
			}
		}
	}
	return n
}

// regionsFromTree walks a clipper polytree and rebuilds polygon-with-holes
// regions. Top level nodes are outer contours, their children holes, and
// nodes below holes start new nested regions.
func regionsFromTree(nodes []*clipper.PolyNode) []Region {
	var out []Region
	for _, outer := range nodes {
		if outer.IsOpen {
			continue
		}
		r := Region{Outer: fromPath(outer.Contour())}
		if r.Empty() {
			continue
		}
		for _, hole := range outer.Childs() {
			if hole.IsOpen {
				continue
			}
			h := fromPath(hole.Contour())
			if len(h) >= 3 {
				r.Holes = append(r.Holes, h)
			}
			out = append(out, regionsFromTree(hole.Childs())...)
		}
		r.Normalize()
		out = append(out, r)
	}
	return out
}

// Union merges a set of regions with nonzero fill into the minimal set of
// disjoint valid regions. It doubles as the validity repair path:
// self-intersecting or inconsistently wound input comes back decomposed
// into valid regions. Empty input yields an empty result.
func Union(regions []Region) []Region {
	c := clipper.NewClipper(clipper.IoNone)
	n := addRegionPaths(func(p clipper.Path) {
		c.AddPath(p, clipper.PtSubject, true)
	}, regions...)
	if n == 0 {
		return nil
	}
	tree, ok := c.Execute2(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)
	if !ok || tree == nil {
		return nil
	}
	return regionsFromTree(tree.Childs())
}

// UnionContours unions bare closed contours, treating every contour as
// the outline of a filled area regardless of winding.
func UnionContours(contours []Contour) []Region {
	rs := make([]Region, 0, len(contours))
	for _, c := range contours {
		if len(c) < 3 {
			continue
		}
		r := Region{Outer: c}
		r.Normalize()
		rs = append(rs, r)
	}
	return Union(rs)
}

// Offset grows (delta > 0) or shrinks (delta < 0) a region by delta using
// miter joins. The result may be empty (over-shrunk thin feature) or split
// into several disjoint regions; neither is an error.
func Offset(r Region, delta float64) []Region {
	return OffsetAll([]Region{r}, delta)
}

// OffsetAll offsets a set of regions together with shared clipper state.
// Overlapping grown regions merge into one.
func OffsetAll(rs []Region, delta float64) []Region {
	co := clipper.NewClipperOffset()
	n := addRegionPaths(func(p clipper.Path) {
		co.AddPath(p, clipper.JtMiter, clipper.EtClosedPolygon)
	}, rs...)
	if n == 0 {
		return nil
	}
	tree := co.Execute2(delta * unitsPerMM)
	if tree == nil {
		return nil
	}
	return regionsFromTree(tree.Childs())
}

// ClipSegments intersects open line segments with the filled region.
// One input segment may split into several disjoint sub-segments where it
// crosses holes or leaves the region. Segments fully outside vanish.
func ClipSegments(segs []Segment, r Region) []Segment {
	if len(segs) == 0 || r.Empty() {
		return nil
	}
	c := clipper.NewClipper(clipper.IoNone)
	for _, s := range segs {
		p := clipper.Path{
			&clipper.IntPoint{X: clipper.CInt(math.Round(s[0].X * unitsPerMM)), Y: clipper.CInt(math.Round(s[0].Y * unitsPerMM))},
			&clipper.IntPoint{X: clipper.CInt(math.Round(s[1].X * unitsPerMM)), Y: clipper.CInt(math.Round(s[1].Y * unitsPerMM))},
		}
		c.AddPath(p, clipper.PtSubject, false)
	}
	if addRegionPaths(func(p clipper.Path) {
		c.AddPath(p, clipper.PtClip, true)
	}, r) == 0 {
		return nil
	}
	tree, ok := c.Execute2(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
	if !ok || tree == nil {
		return nil
	}
	var out []Segment
	for _, p := range c.OpenPathsFromPolyTree(tree) {
		poly := fromPath(p)
		for i := 0; i+1 < len(poly); i++ {
			s := Segment{poly[i], poly[i+1]}
			if s.Length() > 0 {
				out = append(out, s)
			}
		}
	}
	return out
}
