// Package support detects overhanging mesh faces and generates the
// per-layer support toolpaths printed beneath them.
package support

import (
	"math"

	"github.com/soypat/slice/infill"
	"github.com/soypat/slice/internal/d3"
	"github.com/soypat/slice/mesh"
	"github.com/soypat/slice/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// footprintBuffer is the outward safety margin applied to the projected
// overhang footprint, in line widths, to guarantee coverage under the
// true overhang.
const footprintBuffer = 2

// Overhangs returns the mesh faces that need support: a face overhangs
// when the angle between its outward normal and straight down is less
// than 90°-thresholdAngle, equivalently normal.z < -cos(90°-threshold).
func Overhangs(m *mesh.Mesh, thresholdAngle float64) []r3.Triangle {
	thresholdCos := math.Cos((90 - thresholdAngle) * math.Pi / 180)
	var faces []r3.Triangle
	for _, t := range m.Triangles() {
		n := r3.Unit(t.Normal())
		if n.Z < -thresholdCos {
			faces = append(faces, t)
		}
	}
	return faces
}

// Footprint projects overhanging faces onto the XY plane, unions them and
// buffers the result outward by a safety margin of two line widths in a
// single offset.
func Footprint(faces []r3.Triangle, lineWidth float64) []poly.Region {
	var contours []poly.Contour
	for _, t := range faces {
		c := poly.Contour{d3.ToR2(t[0]), d3.ToR2(t[1]), d3.ToR2(t[2])}
		if math.Abs(c.Area()) < 1e-9 {
			continue // face projects to a sliver
		}
		contours = append(contours, c)
	}
	merged := poly.UnionContours(contours)
	if len(merged) == 0 {
		return nil
	}
	return poly.OffsetAll(merged, footprintBuffer*lineWidth)
}

// Compute generates sparse support segments for every layer strictly
// below the overhang top extent. Layers with no segments are omitted from
// the result; a mesh with no overhanging face yields a nil map. Compute
// is independent of wall and infill generation and safe to run
// concurrently with them.
func Compute(m *mesh.Mesh, zHeights []float64, lineWidth, thresholdAngle, density float64) map[int][]poly.Segment {
	faces := Overhangs(m, thresholdAngle)
	if len(faces) == 0 {
		return nil
	}
	footprint := Footprint(faces, lineWidth)
	if len(footprint) == 0 {
		return nil
	}
	topZ := math.Inf(-1)
	for _, t := range faces {
		for _, v := range t {
			topZ = math.Max(topZ, v.Z)
		}
	}

	spacing := lineWidth / math.Max(density/100, 0.01)
	result := make(map[int][]poly.Segment)
	for i, z := range zHeights {
		if z >= topZ {
			continue
		}
		var segs []poly.Segment
		for _, r := range footprint {
			segs = append(segs, supportLines(r, spacing, i)...)
		}
		if len(segs) > 0 {
			result[i] = segs
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// supportLines fills one footprint region with the lines pattern. The
// fixed density of 20 against a line width of half the spacing matches
// the support spacing derived from the configured density.
func supportLines(r poly.Region, spacing float64, layerIndex int) []poly.Segment {
	return infill.Generate(r, infill.Lines, 20, spacing*0.5, layerIndex, 45)
}
