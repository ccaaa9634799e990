package render

import (
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/soypat/slice"
	"github.com/soypat/slice/poly"
)

// DXF drawing layer names, one per toolpath feature.
const (
	LayerWalls   = "WALLS"
	LayerInfill  = "INFILL"
	LayerSkin    = "SKIN"
	LayerSupport = "SUPPORT"
	LayerBrim    = "BRIM"
)

// WriteDXF exports one layer's toolpaths as DXF line entities, split
// into a drawing layer per feature. Entities carry the slicing plane Z
// so exports from consecutive layers stack correctly in CAD.
func WriteDXF(path string, l *slice.Layer) error {
	d := dxf.NewDrawing()

	ring := func(c poly.Contour) {
		for i := range c {
			a, b := c[i], c[(i+1)%len(c)]
			d.Line(a.X, a.Y, l.Z, b.X, b.Y, l.Z)
		}
	}
	segments := func(segs []poly.Segment) {
		for _, s := range segs {
			d.Line(s[0].X, s[0].Y, l.Z, s[1].X, s[1].Y, l.Z)
		}
	}

	features := []struct {
		name  string
		cl    color.ColorNumber
		empty bool
		draw  func()
	}{
		{LayerWalls, color.Red, len(l.Walls) == 0, func() {
			for _, w := range l.Walls {
				ring(w.Ring)
			}
		}},
		{LayerInfill, color.Yellow, len(l.Infill) == 0, func() { segments(l.Infill) }},
		{LayerSkin, color.Magenta, len(l.TopBottom) == 0, func() { segments(l.TopBottom) }},
		{LayerSupport, color.Cyan, len(l.Support) == 0, func() { segments(l.Support) }},
		{LayerBrim, color.Green, len(l.Brim) == 0, func() {
			for _, c := range l.Brim {
				ring(c)
			}
		}},
	}
	for _, f := range features {
		if f.empty {
			continue
		}
		if _, err := d.AddLayer(f.name, f.cl, dxf.DefaultLineType, true); err != nil {
			return err
		}
		f.draw()
	}
	return d.SaveAs(path)
}
