package slice

import (
	"math"
	"testing"

	"github.com/soypat/slice/poly"
)

func squareRegion(side float64) poly.Region {
	return poly.Region{Outer: poly.Contour{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

func TestBuildPerimeters(t *testing.T) {
	const side, lw = 10.0, 0.4
	walls, inner := buildPerimeters(squareRegion(side), 3, lw)
	if len(walls) != 3 {
		t.Fatalf("wall count = %d, want 3", len(walls))
	}
	for depth := 0; depth < 3; depth++ {
		want := 4 * (side - 2*lw*float64(depth))
		got := walls[depth].Ring.Perimeter()
		if math.Abs(got-want) > 0.1 {
			t.Errorf("depth %d perimeter = %.3f, want %.3f", depth, got, want)
		}
		if walls[depth].Depth != depth {
			t.Errorf("walls out of depth order at %d", depth)
		}
	}
	if len(inner) != 1 {
		t.Fatalf("inner region count = %d, want 1", len(inner))
	}
	wantArea := (side - 2*3*lw) * (side - 2*3*lw)
	if got := inner[0].Area(); math.Abs(got-wantArea) > 0.2 {
		t.Errorf("inner area = %.3f, want %.3f", got, wantArea)
	}
}

func TestBuildPerimetersThinFeature(t *testing.T) {
	// A 1mm wide bar only has room for the outermost wall.
	bar := poly.Region{Outer: poly.Contour{
		{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 1}, {X: 0, Y: 1},
	}}
	walls, inner := buildPerimeters(bar, 3, 0.4)
	maxDepth := 0
	for _, w := range walls {
		if w.Depth > maxDepth {
			maxDepth = w.Depth
		}
	}
	if maxDepth >= 2 {
		t.Errorf("thin bar produced depth %d walls, expected early stop", maxDepth)
	}
	if len(inner) != 0 {
		t.Errorf("thin bar left %d inner regions, want none", len(inner))
	}
}

func TestBuildPerimetersHole(t *testing.T) {
	r := squareRegion(10)
	r.Holes = []poly.Contour{{
		{X: 4, Y: 4}, {X: 4, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 4},
	}}
	walls, _ := buildPerimeters(r, 1, 0.4)
	var holes int
	for _, w := range walls {
		if w.Hole {
			holes++
		}
	}
	if holes != 1 {
		t.Errorf("hole wall count = %d, want 1", holes)
	}
}

func TestOrderWalls(t *testing.T) {
	walls := []Wall{{Depth: 0}, {Depth: 2}, {Depth: 1}}
	orderWalls(walls, false)
	if walls[0].Depth != 2 || walls[2].Depth != 0 {
		t.Errorf("inner-first order wrong: %v", depths(walls))
	}
	orderWalls(walls, true)
	if walls[0].Depth != 0 || walls[2].Depth != 2 {
		t.Errorf("outer-first order wrong: %v", depths(walls))
	}
}

func depths(walls []Wall) []int {
	d := make([]int, len(walls))
	for i, w := range walls {
		d[i] = w.Depth
	}
	return d
}

func TestApplySeamBack(t *testing.T) {
	walls := []Wall{{Ring: poly.Contour{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}}}
	applySeam(walls, SeamBack, 0)
	if got := walls[0].Ring[0]; got.Y != 10 {
		t.Errorf("seam vertex = %v, want a rear (max Y) vertex", got)
	}
	if n := len(walls[0].Ring); n != 4 {
		t.Errorf("rotation changed vertex count to %d", n)
	}
}

func TestApplySeamSharpest(t *testing.T) {
	// Right triangle: the smallest interior angle sits at (4,0).
	walls := []Wall{{Ring: poly.Contour{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 3},
	}}}
	applySeam(walls, SeamSharpest, 0)
	if got := walls[0].Ring[0]; got.X != 4 || got.Y != 0 {
		t.Errorf("seam vertex = %v, want {4 0}", got)
	}
}

func TestApplySeamRandomDeterministic(t *testing.T) {
	ring := poly.Contour{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}
	a := []Wall{{Ring: append(poly.Contour{}, ring...)}}
	b := []Wall{{Ring: append(poly.Contour{}, ring...)}}
	applySeam(a, SeamRandom, 7)
	applySeam(b, SeamRandom, 7)
	if a[0].Ring[0] != b[0].Ring[0] {
		t.Error("random seam not deterministic for equal layer index")
	}
}

func TestRotateRing(t *testing.T) {
	c := poly.Contour{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	got := rotateRing(c, 2)
	want := poly.Contour{{X: 2}, {X: 3}, {X: 0}, {X: 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotateRing = %v, want %v", got, want)
		}
	}
	if r := rotateRing(c, 0); &r[0] != &c[0] {
		t.Error("rotation by zero should return the ring unchanged")
	}
}

func TestInteriorAngle(t *testing.T) {
	square := poly.Contour{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	for i := range square {
		if a := interiorAngle(square, i); math.Abs(a-math.Pi/2) > 1e-9 {
			t.Errorf("square corner %d angle = %g, want π/2", i, a)
		}
	}
	degenerate := poly.Contour{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 1}}
	if a := interiorAngle(degenerate, 0); a != math.Pi {
		t.Errorf("degenerate vertex angle = %g, want π", a)
	}
}
