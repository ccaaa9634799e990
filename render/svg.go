package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo/float"

	"github.com/soypat/slice"
	"github.com/soypat/slice/poly"
)

// WriteSVG writes one layer as a bed-sized SVG with a polygon per wall
// ring and a line per fill segment. Coordinates stay in millimeters.
func WriteSVG(w io.Writer, l *slice.Layer, bed [2]float64, opt Options) error {
	opt = opt.withDefaults()
	canvas := svg.New(w)
	canvas.Start(bed[0], bed[1])
	canvas.Rect(0, 0, bed[0], bed[1], "fill:"+hexColor(BackgroundGray))

	flip := func(y float64) float64 { return bed[1] - y }
	style := func(c string) string {
		return fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.3f", c, opt.StrokeWidth)
	}
	ring := func(c poly.Contour, st string) {
		if len(c) < 2 {
			return
		}
		xs := make([]float64, len(c))
		ys := make([]float64, len(c))
		for i, p := range c {
			xs[i], ys[i] = p.X, flip(p.Y)
		}
		canvas.Polygon(xs, ys, st)
	}
	segments := func(segs []poly.Segment, st string) {
		for _, s := range segs {
			canvas.Line(s[0].X, flip(s[0].Y), s[1].X, flip(s[1].Y), st)
		}
	}

	for _, c := range l.Brim {
		ring(c, style(hexColor(BrimColor)))
	}
	segments(l.Support, style(hexColor(SupportColor)))
	segments(l.Infill, style(hexColor(InfillColor)))
	segments(l.TopBottom, style(hexColor(SkinColor)))
	for _, wall := range l.Walls {
		ring(wall.Ring, style(hexColor(WallColor)))
	}
	canvas.End()
	return nil
}
