package poly

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

func square(cx, cy, side float64) Region {
	h := side / 2
	return Region{Outer: Contour{
		{X: cx - h, Y: cy - h},
		{X: cx + h, Y: cy - h},
		{X: cx + h, Y: cy + h},
		{X: cx - h, Y: cy + h},
	}}
}

func TestContourArea(t *testing.T) {
	sq := square(0, 0, 10)
	if !scalar.EqualWithinAbs(sq.Outer.Area(), 100, 1e-9) {
		t.Errorf("ccw square area: got %g, want 100", sq.Outer.Area())
	}
	sq.Outer.Reverse()
	if !scalar.EqualWithinAbs(sq.Outer.Area(), -100, 1e-9) {
		t.Errorf("cw square area: got %g, want -100", sq.Outer.Area())
	}
	if !scalar.EqualWithinAbs(sq.Outer.Perimeter(), 40, 1e-9) {
		t.Errorf("square perimeter: got %g, want 40", sq.Outer.Perimeter())
	}
}

func TestUnionMergesOverlap(t *testing.T) {
	got := Union([]Region{square(0, 0, 10), square(4, 0, 10)})
	if len(got) != 1 {
		t.Fatalf("union of overlapping squares: got %d regions, want 1", len(got))
	}
	// 10x10 + 10x10 - 6x10 overlap.
	if !scalar.EqualWithinAbs(got[0].Area(), 140, 1e-3) {
		t.Errorf("union area: got %g, want 140", got[0].Area())
	}
}

func TestUnionKeepsDisjoint(t *testing.T) {
	got := Union([]Region{square(0, 0, 10), square(100, 0, 10)})
	if len(got) != 2 {
		t.Fatalf("union of disjoint squares: got %d regions, want 2", len(got))
	}
}

func TestUnionEmptyInput(t *testing.T) {
	if got := Union(nil); got != nil {
		t.Errorf("union of nothing: got %v, want nil", got)
	}
	if got := Union([]Region{{}}); got != nil {
		t.Errorf("union of empty region: got %v, want nil", got)
	}
}

// Offsetting inward then outward by the same distance must reproduce a
// convex region's ring count and area within a small epsilon.
func TestOffsetApproximatelyInvertible(t *testing.T) {
	const d = 0.4
	orig := square(0, 0, 10)
	in := Offset(orig, -d)
	if len(in) != 1 {
		t.Fatalf("inward offset: got %d regions, want 1", len(in))
	}
	back := OffsetAll(in, d)
	if len(back) != 1 {
		t.Fatalf("round trip offset: got %d regions, want 1", len(back))
	}
	if len(back[0].Holes) != 0 {
		t.Errorf("round trip offset grew %d holes", len(back[0].Holes))
	}
	if !scalar.EqualWithinAbs(back[0].Area(), orig.Area(), 1e-2) {
		t.Errorf("round trip area: got %g, want %g", back[0].Area(), orig.Area())
	}
}

func TestOffsetOverShrinkIsEmpty(t *testing.T) {
	if got := Offset(square(0, 0, 1), -2); len(got) != 0 {
		t.Errorf("over-shrunk offset: got %d regions, want 0", len(got))
	}
}

func TestOffsetSplitsThinRegion(t *testing.T) {
	// Dumbbell: two 10mm squares joined by a thin 0.2mm bridge. A 0.5mm
	// inward offset severs the bridge.
	bell := Union([]Region{
		square(0, 0, 10),
		square(20, 0, 10),
		{Outer: Contour{{X: 0, Y: -0.1}, {X: 20, Y: -0.1}, {X: 20, Y: 0.1}, {X: 0, Y: 0.1}}},
	})
	if len(bell) != 1 {
		t.Fatalf("dumbbell union: got %d regions, want 1", len(bell))
	}
	got := Offset(bell[0], -0.5)
	if len(got) != 2 {
		t.Fatalf("inward offset of dumbbell: got %d regions, want 2", len(got))
	}
}

func TestClipSegments(t *testing.T) {
	r := square(0, 0, 10)
	r.Holes = []Contour{{
		{X: -2, Y: 2}, {X: -2, Y: -2}, {X: 2, Y: -2}, {X: 2, Y: 2}, // cw hole
	}}
	line := Segment{r2.Vec{X: -20, Y: 0}, r2.Vec{X: 20, Y: 0}}
	got := ClipSegments([]Segment{line}, r)
	if len(got) != 2 {
		t.Fatalf("line through holed square: got %d segments, want 2", len(got))
	}
	var total float64
	for _, s := range got {
		total += s.Length()
	}
	// 10mm crossing minus the 4mm hole.
	if !scalar.EqualWithinAbs(total, 6, 1e-2) {
		t.Errorf("clipped length: got %g, want 6", total)
	}
	if got := ClipSegments([]Segment{{r2.Vec{X: -20, Y: 50}, r2.Vec{X: 20, Y: 50}}}, r); len(got) != 0 {
		t.Errorf("line outside region: got %d segments, want 0", len(got))
	}
}

func TestUnionRepairsSelfIntersection(t *testing.T) {
	// Bowtie: self-intersecting ring. Union must decompose it into valid
	// regions rather than fail.
	bowtie := Region{Outer: Contour{
		{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
	}}
	got := Union([]Region{bowtie})
	if len(got) == 0 {
		t.Fatal("union of bowtie: got no regions")
	}
	for _, r := range got {
		if r.Outer.Area() <= 0 {
			t.Errorf("repaired region is not ccw: area %g", r.Outer.Area())
		}
	}
}

func TestLargestRegion(t *testing.T) {
	big := square(0, 0, 10)
	small := square(50, 0, 2)
	got := LargestRegion([]Region{small, big})
	if math.Abs(got.Area()-big.Area()) > 1e-9 {
		t.Errorf("largest region area: got %g, want %g", got.Area(), big.Area())
	}
}
