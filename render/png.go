package render

import (
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/llgcode/draw2d/draw2dimg"

	"github.com/soypat/slice"
	"github.com/soypat/slice/poly"
)

// WritePNG rasterizes one layer onto a bed-sized canvas and writes it as
// PNG. Y grows upward in bed coordinates, so the image is flipped to
// match the view from above the printer.
func WritePNG(w io.Writer, l *slice.Layer, bed [2]float64, opt Options) error {
	opt = opt.withDefaults()
	width := int(bed[0] * opt.PxPerMM)
	height := int(bed[1] * opt.PxPerMM)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opt.Background), image.Point{}, draw.Src)

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetLineWidth(opt.StrokeWidth * opt.PxPerMM)
	px := func(x float64) float64 { return x * opt.PxPerMM }
	py := func(y float64) float64 { return (bed[1] - y) * opt.PxPerMM }

	strokeRing := func(c poly.Contour) {
		if len(c) < 2 {
			return
		}
		gc.BeginPath()
		gc.MoveTo(px(c[0].X), py(c[0].Y))
		for _, p := range c[1:] {
			gc.LineTo(px(p.X), py(p.Y))
		}
		gc.Close()
		gc.Stroke()
	}
	strokeSegments := func(segs []poly.Segment) {
		for _, s := range segs {
			gc.BeginPath()
			gc.MoveTo(px(s[0].X), py(s[0].Y))
			gc.LineTo(px(s[1].X), py(s[1].Y))
			gc.Stroke()
		}
	}

	gc.SetStrokeColor(BrimColor)
	for _, c := range l.Brim {
		strokeRing(c)
	}
	gc.SetStrokeColor(SupportColor)
	strokeSegments(l.Support)
	gc.SetStrokeColor(InfillColor)
	strokeSegments(l.Infill)
	gc.SetStrokeColor(SkinColor)
	strokeSegments(l.TopBottom)
	gc.SetStrokeColor(WallColor)
	for _, wall := range l.Walls {
		strokeRing(wall.Ring)
	}
	return png.Encode(w, img)
}
