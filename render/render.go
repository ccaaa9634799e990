// Package render draws sliced layers as 2D images and CAD interchange
// files for visual inspection: PNG raster previews, SVG vector previews
// and DXF exports with one drawing layer per toolpath feature.
package render

import "image/color"

// Feature stroke colors shared by the raster and vector writers.
var (
	WallColor      = color.RGBA{R: 0xd9, G: 0x3a, B: 0x2b, A: 0xff}
	InfillColor    = color.RGBA{R: 0xf2, G: 0xa7, B: 0x3d, A: 0xff}
	SkinColor      = color.RGBA{R: 0xc9, G: 0x6a, B: 0x2d, A: 0xff}
	SupportColor   = color.RGBA{R: 0x4a, G: 0x90, B: 0xd9, A: 0xff}
	BrimColor      = color.RGBA{R: 0x6a, G: 0xb0, B: 0x4a, A: 0xff}
	BackgroundGray = color.RGBA{R: 0x28, G: 0x28, B: 0x28, A: 0xff}
)

// Options tune layer rendering. The zero value picks usable defaults.
type Options struct {
	// PxPerMM scales bed millimeters to output pixels. Defaults to 4.
	PxPerMM float64
	// StrokeWidth is the drawn path width in mm. Defaults to the usual
	// 0.4mm extrusion width.
	StrokeWidth float64
	// Background fills the bed area. Defaults to dark gray.
	Background color.Color
}

func (o Options) withDefaults() Options {
	if o.PxPerMM <= 0 {
		o.PxPerMM = 4
	}
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = 0.4
	}
	if o.Background == nil {
		o.Background = BackgroundGray
	}
	return o
}

func hexColor(c color.RGBA) string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0xf]
	}
	return string(b)
}
