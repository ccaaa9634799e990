// Package mesh provides the triangle mesh container consumed by the
// slicing pipeline, STL loading, and planar cross-sectioning.
package mesh

import (
	"errors"
	"math"

	"github.com/soypat/slice/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyMesh is returned when a mesh with no triangles reaches an
// operation that requires geometry.
var ErrEmptyMesh = errors.New("mesh has no triangles")

// Mesh is a triangle soup in millimeter units. The slicing core only
// reads it; placement transforms are applied by the caller before a run.
type Mesh struct {
	name      string
	triangles []r3.Triangle
	bounds    d3.Box
}

// New creates a mesh from triangles. The triangle slice is retained, not
// copied. Meshes with no triangles are rejected.
func New(triangles []r3.Triangle, name string) (*Mesh, error) {
	if len(triangles) == 0 {
		return nil, ErrEmptyMesh
	}
	m := &Mesh{name: name, triangles: triangles}
	m.recalculateBounds()
	return m, nil
}

func (m *Mesh) recalculateBounds() {
	bb := d3.Box{Min: m.triangles[0][0], Max: m.triangles[0][0]}
	for _, t := range m.triangles {
		for _, v := range t {
			bb = bb.Include(v)
		}
	}
	m.bounds = bb
}

// Name returns the mesh's display name.
func (m *Mesh) Name() string { return m.name }

// NumTriangles returns the triangle count.
func (m *Mesh) NumTriangles() int { return len(m.triangles) }

// Triangles returns the mesh triangles. The returned slice is the mesh's
// backing storage and must be treated as read-only.
func (m *Mesh) Triangles() []r3.Triangle { return m.triangles }

// Bounds returns the axis aligned bounding box.
func (m *Mesh) Bounds() d3.Box { return m.bounds }

// Centroid returns the mean of all triangle vertices.
func (m *Mesh) Centroid() r3.Vec {
	var sum r3.Vec
	for _, t := range m.triangles {
		for _, v := range t {
			sum = r3.Add(sum, v)
		}
	}
	return r3.Scale(1/float64(3*len(m.triangles)), sum)
}

// Volume returns the enclosed volume in mm³ computed as the sum of signed
// tetrahedron volumes. The result is only meaningful for watertight
// meshes; for open meshes it degrades gracefully rather than failing.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, t := range m.triangles {
		vol += r3.Dot(t[0], r3.Cross(t[1], t[2]))
	}
	return math.Abs(vol) / 6
}

// SurfaceArea returns the summed triangle area in mm².
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for _, t := range m.triangles {
		e1 := r3.Sub(t[1], t[0])
		e2 := r3.Sub(t[2], t[0])
		area += r3.Norm(r3.Cross(e1, e2)) / 2
	}
	return area
}

// IsWatertight reports whether every edge is shared by exactly two
// triangles. Watertightness is informational: non-watertight meshes still
// slice, only volume derived numbers degrade.
func (m *Mesh) IsWatertight() bool {
	edges := make(map[[2]vertexKey]int, 3*len(m.triangles))
	for _, t := range m.triangles {
		for i := 0; i < 3; i++ {
			a, b := keyOf(t[i]), keyOf(t[(i+1)%3])
			if b.less(a) {
				a, b = b, a
			}
			edges[[2]vertexKey{a, b}]++
		}
	}
	for _, n := range edges {
		if n != 2 {
			return false
		}
	}
	return true
}

type vertexKey [3]int64

func keyOf(v r3.Vec) vertexKey {
	const res = 1e4 // 0.1 micrometer vertex merge grid
	return vertexKey{
		int64(math.Round(v.X * res)),
		int64(math.Round(v.Y * res)),
		int64(math.Round(v.Z * res)),
	}
}

func (a vertexKey) less(b vertexKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Transform applies t to every vertex in place and recomputes bounds.
func (m *Mesh) Transform(t d3.Transform) {
	for i := range m.triangles {
		for j := range m.triangles[i] {
			m.triangles[i][j] = t.Transform(m.triangles[i][j])
		}
	}
	m.recalculateBounds()
}

// Translate moves the mesh by v.
func (m *Mesh) Translate(v r3.Vec) {
	m.Transform(d3.Transform{}.Translate(v))
}

// Scale scales the mesh uniformly by factor around its centroid.
func (m *Mesh) Scale(factor float64) {
	m.Transform(d3.Transform{}.Scale(m.Centroid(), d3.Elem(factor)))
}

// RotateZ rotates the mesh by deg degrees around the vertical axis
// through its centroid.
func (m *Mesh) RotateZ(deg float64) {
	c := m.Centroid()
	rot := r3.NewRotation(deg*math.Pi/180, r3.Vec{Z: 1})
	t := d3.ComposeTransform(r3.Vec{}, d3.Elem(1), rot)
	m.Transform(d3.Transform{}.Translate(r3.Scale(-1, c)))
	m.Transform(t)
	m.Transform(d3.Transform{}.Translate(c))
}

// PlaceOnBed drops the mesh so its lowest point sits at z=0.
func (m *Mesh) PlaceOnBed() {
	m.Translate(r3.Vec{Z: -m.bounds.Min.Z})
}

// CenterOnBed centers the mesh on a bed of the given size and places it
// on the bed surface.
func (m *Mesh) CenterOnBed(bed r2.Vec) {
	c := m.bounds.Center()
	m.Translate(r3.Vec{X: bed.X/2 - c.X, Y: bed.Y/2 - c.Y})
	m.PlaceOnBed()
}

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	tri := make([]r3.Triangle, len(m.triangles))
	copy(tri, m.triangles)
	return &Mesh{name: m.name, triangles: tri, bounds: m.bounds}
}
