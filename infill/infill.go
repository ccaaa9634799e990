// Package infill generates fill line segments for planar regions: sparse
// patterns for interior layers and solid fill for top and bottom skins.
package infill

import (
	"fmt"
	"math"

	"github.com/soypat/slice/internal/d2"
	"github.com/soypat/slice/poly"
	"gonum.org/v1/gonum/spatial/r2"
)

// Pattern enumerates the fill pattern variants.
type Pattern uint8

const (
	// Grid is two perpendicular families of parallel lines.
	Grid Pattern = iota
	// Lines is a single family of parallel lines alternating direction
	// every layer.
	Lines
	// Honeycomb is a flat-top hexagon tiling.
	Honeycomb
	// Solid is a 100% dense single family used for top/bottom skins.
	Solid
)

var patternNames = map[Pattern]string{
	Grid:      "grid",
	Lines:     "lines",
	Honeycomb: "honeycomb",
	Solid:     "solid",
}

func (p Pattern) String() string {
	if s, ok := patternNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

// ParsePattern converts a configuration pattern name to its Pattern.
func ParsePattern(s string) (Pattern, error) {
	for p, name := range patternNames {
		if s == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown infill pattern %q", s)
}

// Spacing converts a density percentage and extrusion line width to the
// distance between fill lines. Density is clamped to [1, 100]; at 100%
// the spacing equals the line width.
func Spacing(density, lineWidth float64) float64 {
	density = math.Max(1, math.Min(density, 100))
	return lineWidth / (density / 100)
}

// Generate produces fill segments for the region. The layer index
// alternates the fill direction between layers; angle is the base fill
// angle in degrees. A density of zero or an empty region produces no
// segments for every pattern.
func Generate(r poly.Region, p Pattern, density, lineWidth float64, layerIndex int, angle float64) []poly.Segment {
	if r.Empty() || density <= 0 || lineWidth <= 0 {
		return nil
	}
	switch p {
	case Grid:
		return grid(r, density, lineWidth, layerIndex, angle)
	case Lines:
		return lines(r, density, lineWidth, layerIndex, angle)
	case Honeycomb:
		return honeycomb(r, density, lineWidth)
	case Solid:
		return solid(r, lineWidth, layerIndex, angle)
	}
	panic("invalid infill pattern")
}

func grid(r poly.Region, density, lineWidth float64, layerIndex int, angle float64) []poly.Segment {
	spacing := Spacing(density, lineWidth)
	base := angle
	if layerIndex%2 == 1 {
		base = -angle
	}
	segs := poly.ClipSegments(parallelLines(r.BoundingBox(), base, spacing), r)
	return append(segs, poly.ClipSegments(parallelLines(r.BoundingBox(), base+90, spacing), r)...)
}

func lines(r poly.Region, density, lineWidth float64, layerIndex int, angle float64) []poly.Segment {
	spacing := Spacing(density, lineWidth)
	a := angle + float64(layerIndex%2)*90
	return poly.ClipSegments(parallelLines(r.BoundingBox(), a, spacing), r)
}

func solid(r poly.Region, lineWidth float64, layerIndex int, angle float64) []poly.Segment {
	a := angle + float64(layerIndex%2)*90
	return poly.ClipSegments(parallelLines(r.BoundingBox(), a, lineWidth), r)
}

// parallelLines builds a family of parallel candidate lines at angleDeg
// covering the bounding box. Lines over-cover the box (about 1.2x its
// diagonal) so that any rotation still spans irregular shapes; clipping
// trims the excess.
func parallelLines(bb d2.Box, angleDeg, spacing float64) []poly.Segment {
	size := bb.Size()
	center := bb.Center()
	diag := math.Hypot(size.X, size.Y)*0.6 + spacing

	rad := angleDeg * math.Pi / 180
	dir := r2.Vec{X: math.Cos(rad), Y: math.Sin(rad)}
	perp := r2.Vec{X: -dir.Y, Y: dir.X}

	n := int(math.Ceil(diag*2/spacing)) + 1
	segs := make([]poly.Segment, 0, 2*n+1)
	for i := -n; i <= n; i++ {
		origin := r2.Add(center, r2.Scale(float64(i)*spacing, perp))
		segs = append(segs, poly.Segment{
			r2.Sub(origin, r2.Scale(diag, dir)),
			r2.Add(origin, r2.Scale(diag, dir)),
		})
	}
	return segs
}

// honeycomb tiles the region's padded bounding box with flat-top
// hexagons of cell size equal to the line spacing, offsetting alternate
// columns by half a cell in a brick-like pattern, and clips every hexagon
// edge to the region.
func honeycomb(r poly.Region, density, lineWidth float64) []poly.Segment {
	size := Spacing(density, lineWidth)
	bb := r.BoundingBox()
	pad := size * 2

	hexW := size * math.Sqrt(3)
	hexH := size * 2
	rowH := hexH * 0.75

	var candidates []poly.Segment
	col := 0
	for x := bb.Min.X - pad; x < bb.Max.X+pad; x += hexW {
		for y := bb.Min.Y - pad; y < bb.Max.Y+pad; y += rowH {
			cy := y
			if col%2 == 1 {
				cy += size / 2
			}
			var verts [7]r2.Vec
			for k := 0; k < 6; k++ {
				a := (60*float64(k) + 30) * math.Pi / 180
				verts[k] = r2.Vec{X: x + size*math.Cos(a), Y: cy + size*math.Sin(a)}
			}
			verts[6] = verts[0]
			for i := 0; i < 6; i++ {
				candidates = append(candidates, poly.Segment{verts[i], verts[i+1]})
			}
		}
		col++
	}
	return poly.ClipSegments(candidates, r)
}
