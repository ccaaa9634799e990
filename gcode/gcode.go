package gcode

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/soypat/slice"
	"github.com/soypat/slice/poly"
)

// Emit writes the motion program for already sliced layers. Emission is
// sequential and deterministic: identical layers, settings and profile
// produce byte-identical output. Emission failures are independent of
// slicing success; the layers stay valid regardless.
func Emit(w io.Writer, layers []slice.Layer, cfg slice.Settings, pro Profile) error {
	if err := pro.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	g := &emitter{
		w:         bufio.NewWriter(w),
		cfg:       &cfg,
		pro:       &pro,
		feedScale: 1,
		fan:       -1,
	}
	g.preamble(len(layers))
	prevZ := 0.0
	for i := range layers {
		l := &layers[i]
		if cfg.SpiralizeMode && l.Index >= cfg.BottomLayers {
			g.spiralLayer(l, prevZ)
		} else {
			g.layer(l)
		}
		prevZ = l.Z
	}
	g.postamble()
	if g.err != nil {
		return g.err
	}
	return g.w.Flush()
}

// EmitString is a convenience wrapper around Emit returning the program
// as a string.
func EmitString(layers []slice.Layer, cfg slice.Settings, pro Profile) (string, error) {
	var sb strings.Builder
	if err := Emit(&sb, layers, cfg, pro); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// emitter carries the machine state threaded through emission: current
// position, absolute filament position, retraction and fan state.
type emitter struct {
	w   *bufio.Writer
	cfg *slice.Settings
	pro *Profile
	err error

	pos r2.Vec
	z   float64
	e   float64 // absolute filament position, mm

	extPerMM  float64 // filament mm per path mm at current layer height
	feedScale float64 // min-layer-time slowdown, 1 = nominal
	retracted bool
	spiral    bool // inside the continuous vase helix, no retraction
	fan       int  // last commanded PWM, -1 before the first command
}

func (g *emitter) printf(format string, args ...interface{}) {
	if g.err != nil {
		return
	}
	_, g.err = fmt.Fprintf(g.w, format, args...)
}

// preamble heats, runs the start template and waits for temperatures.
func (g *emitter) preamble(layerCount int) {
	printTemp := g.firstLayerTemp()
	bedTemp := g.bedTemp()
	g.printf(";FLAVOR:Marlin\n")
	g.printf(";Layer count: %d\n", layerCount)
	if bedTemp > 0 {
		g.printf("M140 S%d\n", bedTemp)
	}
	g.printf("M104 S%d\n", printTemp)
	g.printf("%s\n", expandTemplate(g.pro.StartGcode, printTemp, bedTemp, g.pro.NozzleDiameter))
	if bedTemp > 0 {
		g.printf("M190 S%d\n", bedTemp)
	}
	g.printf("M109 S%d\n", printTemp)
}

func (g *emitter) postamble() {
	if g.cfg.RetractionEnabled && !g.retracted {
		g.printf("G1 E%.5f F%.0f\n", g.e-g.cfg.RetractionDistance, g.cfg.RetractionSpeed*60)
	}
	g.printf("%s\n", expandTemplate(g.pro.EndGcode, g.firstLayerTemp(), g.bedTemp(), g.pro.NozzleDiameter))
}

func (g *emitter) firstLayerTemp() int {
	if g.cfg.PrintTempFirstLayer > 0 {
		return g.cfg.PrintTempFirstLayer
	}
	return g.cfg.PrintTemp
}

func (g *emitter) bedTemp() int {
	t := g.cfg.BedTemp
	if g.pro.BedTempMax == 0 {
		return 0 // no heated bed on this printer
	}
	if t > g.pro.BedTempMax {
		t = g.pro.BedTempMax
	}
	return t
}

// layer emits one normal (non-spiral) layer: brim, support, then walls
// and fills in the configured order.
func (g *emitter) layer(l *slice.Layer) {
	g.beginLayer(l)
	if l.Empty() {
		return
	}
	g.feedScale = g.minTimeScale(l)

	for _, c := range l.Brim {
		g.ring(c, g.feed(g.cfg.FirstLayerSpeed))
	}
	g.segments(l.Support, g.featureFeed(l.Index, g.cfg.InfillSpeed))

	infillFeed := g.featureFeed(l.Index, g.cfg.InfillSpeed)
	if g.cfg.SparseBeforeWall {
		g.segments(l.Infill, infillFeed)
		g.walls(l)
	} else {
		g.walls(l)
		g.segments(l.Infill, infillFeed)
	}
	g.segments(l.TopBottom, g.featureFeed(l.Index, g.cfg.TopBottomSpeed))
	g.feedScale = 1
}

// beginLayer writes the layer marker, moves to the new plane and updates
// fan and nozzle temperature state.
func (g *emitter) beginLayer(l *slice.Layer) {
	g.printf(";LAYER:%d\n", l.Index)
	g.z = l.Z
	g.printf("G0 Z%.3f F%.0f\n", g.z, g.feed(g.cfg.TravelSpeed)*60)

	h := g.cfg.LayerHeight
	if l.Index == 0 {
		h = g.cfg.FirstLayerHeight
	}
	filamentArea := math.Pi * g.cfg.FilamentDiameter * g.cfg.FilamentDiameter / 4
	g.extPerMM = g.cfg.LineWidth * h / filamentArea

	if l.Index == 1 && g.cfg.PrintTemp != g.firstLayerTemp() {
		g.printf("M104 S%d\n", g.cfg.PrintTemp)
	}
	fanPct := g.cfg.FanSpeed
	if l.Index < g.cfg.FanKickInLayer {
		fanPct = g.cfg.FanFirstLayer
	}
	pwm := fanPct * 255 / 100
	if pwm != g.fan {
		if pwm <= 0 {
			g.printf("M107\n")
		} else {
			g.printf("M106 S%d\n", pwm)
		}
		g.fan = pwm
	}
}

// minTimeScale returns the uniform feed multiplier that stretches a
// too-fast layer to the configured minimum layer time.
func (g *emitter) minTimeScale(l *slice.Layer) float64 {
	if g.cfg.MinLayerTime <= 0 {
		return 1
	}
	seconds := l.WallLength()/g.featureFeed(l.Index, g.cfg.PrintSpeed) +
		segLen(l.Infill)/g.featureFeed(l.Index, g.cfg.InfillSpeed) +
		segLen(l.TopBottom)/g.featureFeed(l.Index, g.cfg.TopBottomSpeed) +
		segLen(l.Support)/g.featureFeed(l.Index, g.cfg.InfillSpeed) +
		l.BrimLength()/g.feed(g.cfg.FirstLayerSpeed)
	if seconds <= 0 || seconds >= g.cfg.MinLayerTime {
		return 1
	}
	return seconds / g.cfg.MinLayerTime
}

func segLen(segs []poly.Segment) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.Length()
	}
	return sum
}

// feed clamps a configured speed to the printer ceiling. mm/s.
func (g *emitter) feed(speed float64) float64 {
	if speed > g.pro.MaxPrintSpeed {
		speed = g.pro.MaxPrintSpeed
	}
	return speed
}

// featureFeed resolves the printing feed for a feature on a given layer:
// layer 0 prints everything at the first layer speed.
func (g *emitter) featureFeed(layerIndex int, speed float64) float64 {
	if layerIndex == 0 {
		speed = g.cfg.FirstLayerSpeed
	}
	return g.feed(speed)
}

func (g *emitter) walls(l *slice.Layer) {
	for _, w := range l.Walls {
		speed := g.cfg.PrintSpeed
		if w.Depth == 0 {
			speed = g.cfg.OuterPerimeterSpeed
		}
		g.ring(w.Ring, g.featureFeed(l.Index, speed))
	}
}

// ring travels to the seam vertex then extrudes the closed loop.
func (g *emitter) ring(c poly.Contour, feed float64) {
	if len(c) < 3 {
		return
	}
	g.travelTo(c[0])
	for _, p := range c[1:] {
		g.extrudeTo(p, feed)
	}
	g.extrudeTo(c[0], feed)
}

// segments extrudes open fill lines, entering each one at whichever
// endpoint is closer to the current position.
func (g *emitter) segments(segs []poly.Segment, feed float64) {
	for _, s := range segs {
		a, b := s[0], s[1]
		if dist(g.pos, b) < dist(g.pos, a) {
			a, b = b, a
		}
		g.travelTo(a)
		g.extrudeTo(b, feed)
	}
}

// travelTo moves without extruding, retracting first when the hop is
// long enough to ooze. Retraction state: Primed → Retracted on the
// retract move, back to Primed on the prime move after arrival.
func (g *emitter) travelTo(p r2.Vec) {
	d := dist(g.pos, p)
	if d < 1e-9 {
		return
	}
	retract := g.cfg.RetractionEnabled && !g.spiral && d > g.cfg.RetractionMinDistance
	if retract {
		g.printf("G1 E%.5f F%.0f\n", g.e-g.cfg.RetractionDistance, g.cfg.RetractionSpeed*60)
		g.retracted = true
		if g.cfg.RetractionZHop > 0 {
			g.printf("G0 Z%.3f F%.0f\n", g.z+g.cfg.RetractionZHop, g.feed(g.cfg.TravelSpeed)*60)
		}
	}
	g.printf("G0 X%.3f Y%.3f F%.0f\n", p.X, p.Y, g.feed(g.cfg.TravelSpeed)*60)
	g.pos = p
	if retract {
		if g.cfg.RetractionZHop > 0 {
			g.printf("G0 Z%.3f F%.0f\n", g.z, g.feed(g.cfg.TravelSpeed)*60)
		}
		g.e += g.cfg.RetractionExtraPrime
		g.printf("G1 E%.5f F%.0f\n", g.e, g.cfg.RetractionSpeed*60)
		g.retracted = false
	}
}

// extrudeTo moves while extruding at the given feed, advancing the
// absolute filament position by path length times the flow ratio.
func (g *emitter) extrudeTo(p r2.Vec, feed float64) {
	d := dist(g.pos, p)
	if d < 1e-9 {
		return
	}
	g.e += d * g.extPerMM
	g.printf("G1 X%.3f Y%.3f E%.5f F%.0f\n", p.X, p.Y, g.e, feed*g.feedScale*60)
	g.pos = p
}

// spiralLayer emits one turn of the vase helix: the outermost wall with
// Z interpolated along the path so consecutive layers join seamlessly.
// No retraction and no fill inside the spiral.
func (g *emitter) spiralLayer(l *slice.Layer, prevZ float64) {
	g.printf(";LAYER:%d\n", l.Index)
	w := l.OuterWall()
	if w == nil || len(w.Ring) < 3 {
		g.z = l.Z
		g.printf("G0 Z%.3f F%.0f\n", g.z, g.feed(g.cfg.TravelSpeed)*60)
		return
	}
	ring := w.Ring
	total := ring.Perimeter()
	if total <= 0 {
		g.z = l.Z
		return
	}

	filamentArea := math.Pi * g.cfg.FilamentDiameter * g.cfg.FilamentDiameter / 4
	g.extPerMM = g.cfg.LineWidth * g.cfg.LayerHeight / filamentArea

	if !g.spiral {
		// First helix turn: get to its start with an ordinary travel,
		// then lock out retraction for the rest of the print.
		g.travelTo(ring[0])
		g.z = prevZ
		g.printf("G0 Z%.3f F%.0f\n", g.z, g.feed(g.cfg.TravelSpeed)*60)
		g.spiral = true
	}

	feed := g.feed(g.cfg.OuterPerimeterSpeed)
	walked := 0.0
	prev := ring[0]
	emit := func(p r2.Vec) {
		d := dist(prev, p)
		if d < 1e-9 {
			return
		}
		walked += d
		z := prevZ + (l.Z-prevZ)*walked/total
		g.e += d * g.extPerMM
		g.printf("G1 X%.3f Y%.3f Z%.3f E%.5f F%.0f\n", p.X, p.Y, z, g.e, feed*60)
		g.pos, g.z = p, z
		prev = p
	}
	// Bridge from the previous turn's end to this ring's start.
	if d := dist(g.pos, ring[0]); d > 1e-9 {
		g.e += d * g.extPerMM
		g.printf("G1 X%.3f Y%.3f Z%.3f E%.5f F%.0f\n", ring[0].X, ring[0].Y, g.z, g.e, feed*60)
		g.pos = ring[0]
	}
	for _, p := range ring[1:] {
		emit(p)
	}
	emit(ring[0])
	g.z = l.Z
}

func dist(a, b r2.Vec) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
