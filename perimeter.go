package slice

import (
	"math"
	"math/rand"
	"sort"

	"github.com/soypat/slice/poly"
)

// buildPerimeters generates wallCount concentric wall loops for a region
// by repeated inward offsets of lineWidth, and returns the remaining
// inner area available for infill.
//
// The walls iterate one offset per loop so that splits are followed; the
// inner area uses a single offset by the total wall distance instead.
// Thin features run out of room early: fewer walls than requested is a
// valid result.
func buildPerimeters(r poly.Region, wallCount int, lineWidth float64) (walls []Wall, inner []poly.Region) {
	current := []poly.Region{r}
	for depth := 0; depth < wallCount && len(current) > 0; depth++ {
		for _, reg := range current {
			walls = append(walls, Wall{Ring: reg.Outer, Depth: depth})
			for _, h := range reg.Holes {
				walls = append(walls, Wall{Ring: h, Depth: depth, Hole: true})
			}
		}
		current = poly.OffsetAll(current, -lineWidth)
	}
	inner = poly.Offset(r, -float64(wallCount)*lineWidth)
	return walls, inner
}

// orderWalls sorts walls into emission order. Inner walls print first by
// default; outerFirst flips that for surface-quality priority.
func orderWalls(walls []Wall, outerFirst bool) {
	sort.SliceStable(walls, func(i, j int) bool {
		if outerFirst {
			return walls[i].Depth < walls[j].Depth
		}
		return walls[i].Depth > walls[j].Depth
	})
}

// applySeam rotates every wall ring so its start vertex follows the seam
// policy. Rotation changes only the traversal start, never the geometry.
func applySeam(walls []Wall, seam SeamPosition, layerIndex int) {
	var rng *rand.Rand
	if seam == SeamRandom {
		rng = rand.New(rand.NewSource(int64(layerIndex)))
	}
	for i := range walls {
		ring := walls[i].Ring
		if len(ring) < 3 {
			continue
		}
		var start int
		switch seam {
		case SeamRandom:
			start = rng.Intn(len(ring))
		case SeamSharpest:
			best := math.Inf(1)
			for v := range ring {
				if a := interiorAngle(ring, v); a < best {
					best = a
					start = v
				}
			}
		default: // SeamBack: vertex nearest the rear anchor far behind the bed.
			best := math.Inf(-1)
			for v, p := range ring {
				if p.Y > best {
					best = p.Y
					start = v
				}
			}
		}
		walls[i].Ring = rotateRing(ring, start)
	}
}

// rotateRing returns the ring starting at index start, preserving order.
func rotateRing(c poly.Contour, start int) poly.Contour {
	if start == 0 {
		return c
	}
	out := make(poly.Contour, 0, len(c))
	out = append(out, c[start:]...)
	out = append(out, c[:start]...)
	return out
}
