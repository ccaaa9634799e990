package gcode

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/soypat/slice"
	"github.com/soypat/slice/poly"
)

func squareRing(side, x, y float64) poly.Contour {
	return poly.Contour{
		{X: x, Y: y},
		{X: x + side, Y: y},
		{X: x + side, Y: y + side},
		{X: x, Y: y + side},
	}
}

func wallLayers(n int) []slice.Layer {
	layers := make([]slice.Layer, n)
	for i := range layers {
		z := 0.3 + 0.2*float64(i)
		layers[i] = slice.Layer{
			Z:     z,
			Index: i,
			Walls: []slice.Wall{{Ring: squareRing(10, 0, 0), Depth: 0}},
		}
	}
	return layers
}

// words extracts the float value of a one-letter word ("E", "F", "Z")
// from a gcode line, reporting whether it was present.
func word(line, letter string) (float64, bool) {
	for _, f := range strings.Fields(line) {
		if strings.HasPrefix(f, letter) {
			v, err := strconv.ParseFloat(f[1:], 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

func TestEmitStructure(t *testing.T) {
	cfg := slice.DefaultSettings()
	pro := DefaultProfile()
	pro.StartGcode = "G28\nM104 S{print_temp} ;heat"
	var buf bytes.Buffer
	if err := Emit(&buf, wallLayers(3), cfg, pro); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		";Layer count: 3",
		"M140 S60",
		"M104 S215 ;heat", // template substitution uses the first layer temp
		"G28",
		"M190 S60",
		"M109 S215",
		";LAYER:0",
		";LAYER:2",
		"M104 S210", // drop to print temp after the first layer
		"M84",       // end template
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "{print_temp}") {
		t.Error("unsubstituted placeholder left in output")
	}
	if i0, i2 := strings.Index(out, ";LAYER:0"), strings.Index(out, ";LAYER:2"); i0 > i2 {
		t.Error("layers emitted out of order")
	}
}

func TestEmitDeterministic(t *testing.T) {
	cfg := slice.DefaultSettings()
	pro := DefaultProfile()
	var a, b bytes.Buffer
	if err := Emit(&a, wallLayers(4), cfg, pro); err != nil {
		t.Fatal(err)
	}
	if err := Emit(&b, wallLayers(4), cfg, pro); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("repeated emission produced different output")
	}
	s, err := EmitString(wallLayers(4), cfg, pro)
	if err != nil {
		t.Fatal(err)
	}
	if s != a.String() {
		t.Error("EmitString differs from Emit")
	}
}

func TestEmitExtrusionMonotonic(t *testing.T) {
	cfg := slice.DefaultSettings()
	cfg.RetractionEnabled = false
	cfg.MinLayerTime = 0
	var buf bytes.Buffer
	if err := Emit(&buf, wallLayers(2), cfg, DefaultProfile()); err != nil {
		t.Fatal(err)
	}
	last := 0.0
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.HasPrefix(line, "G1") {
			continue
		}
		e, ok := word(line, "E")
		if !ok {
			continue
		}
		if e < last {
			t.Fatalf("extrusion went backwards with retraction disabled: %q", line)
		}
		last = e
	}
	if last == 0 {
		t.Fatal("no extrusion emitted")
	}
}

func TestEmitRetraction(t *testing.T) {
	cfg := slice.DefaultSettings()
	cfg.MinLayerTime = 0
	cfg.RetractionZHop = 0.4
	// Two islands far apart force a retracted travel between them.
	layers := []slice.Layer{{
		Z: 0.3, Index: 0,
		Walls: []slice.Wall{
			{Ring: squareRing(10, 0, 0), Depth: 0},
			{Ring: squareRing(10, 50, 0), Depth: 0},
		},
	}}
	var buf bytes.Buffer
	if err := Emit(&buf, layers, cfg, DefaultProfile()); err != nil {
		t.Fatal(err)
	}
	dips, hops := 0, 0
	last := 0.0
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "G1") {
			if e, ok := word(line, "E"); ok {
				if e < last {
					dips++
				}
				last = e
			}
		}
		if strings.HasPrefix(line, "G0") {
			if z, ok := word(line, "Z"); ok && z > 0.3+0.3 {
				hops++
			}
		}
	}
	if dips == 0 {
		t.Error("expected at least one retraction dip in E")
	}
	if hops == 0 {
		t.Error("expected z-hop moves during retracted travel")
	}
}

func TestTravelFeedClamped(t *testing.T) {
	cfg := slice.DefaultSettings() // travel 200mm/s
	cfg.RetractionZHop = 0.4
	pro := DefaultProfile()
	pro.MaxPrintSpeed = 50
	layers := []slice.Layer{{
		Z: 0.3, Index: 0,
		Walls: []slice.Wall{
			{Ring: squareRing(10, 0, 0), Depth: 0},
			{Ring: squareRing(10, 50, 0), Depth: 0},
		},
	}}
	var buf bytes.Buffer
	if err := Emit(&buf, layers, cfg, pro); err != nil {
		t.Fatal(err)
	}
	const maxF = 50 * 60
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.HasPrefix(line, "G0") {
			continue
		}
		if f, ok := word(line, "F"); ok && f > maxF {
			t.Fatalf("travel feed %g exceeds printer ceiling %d: %q", f, maxF, line)
		}
	}
}

func TestEmitShortTravelSkipsRetraction(t *testing.T) {
	cfg := slice.DefaultSettings()
	cfg.MinLayerTime = 0
	cfg.RetractionMinDistance = 100 // every travel is "short"
	layers := []slice.Layer{{
		Z: 0.3, Index: 0,
		Walls: []slice.Wall{
			{Ring: squareRing(10, 0, 0), Depth: 0},
			{Ring: squareRing(10, 50, 0), Depth: 0},
		},
	}}
	var buf bytes.Buffer
	if err := Emit(&buf, layers, cfg, DefaultProfile()); err != nil {
		t.Fatal(err)
	}
	last := 0.0
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.HasPrefix(line, "G1") || !strings.Contains(line, "X") {
			continue // the final end-of-print retract has no X word
		}
		if e, ok := word(line, "E"); ok {
			if e < last {
				t.Fatalf("retraction fired on a short travel: %q", line)
			}
			last = e
		}
	}
}

func TestEmitSpiralize(t *testing.T) {
	cfg := slice.DefaultSettings()
	cfg.SpiralizeMode = true
	cfg.BottomLayers = 1
	cfg.MinLayerTime = 0
	var buf bytes.Buffer
	if err := Emit(&buf, wallLayers(4), cfg, DefaultProfile()); err != nil {
		t.Fatal(err)
	}
	spiralMoves := 0
	inSpiral := false
	last, lastZ := 0.0, 0.0
	for _, line := range strings.Split(buf.String(), "\n") {
		if line == ";LAYER:1" {
			inSpiral = true
		}
		if !inSpiral || !strings.HasPrefix(line, "G1") || !strings.Contains(line, "X") {
			continue // the final end-of-print retract has no X word
		}
		if z, hasZ := word(line, "Z"); hasZ {
			if z < lastZ {
				t.Fatalf("spiral Z went down: %q", line)
			}
			lastZ = z
			spiralMoves++
		}
		if e, ok := word(line, "E"); ok {
			if e < last {
				t.Fatalf("retraction inside the spiral: %q", line)
			}
			last = e
		}
	}
	if spiralMoves == 0 {
		t.Fatal("spiralize emitted no Z-interpolated extrusion moves")
	}
}

func TestEmitMinLayerTimeSlowdown(t *testing.T) {
	cfg := slice.DefaultSettings()
	cfg.RetractionEnabled = false
	layers := wallLayers(2)

	maxFeed := func(minTime float64) float64 {
		cfg.MinLayerTime = minTime
		var buf bytes.Buffer
		if err := Emit(&buf, layers, cfg, DefaultProfile()); err != nil {
			t.Fatal(err)
		}
		best := 0.0
		inLayer := false
		for _, line := range strings.Split(buf.String(), "\n") {
			if line == ";LAYER:1" {
				inLayer = true
			}
			if !inLayer || !strings.HasPrefix(line, "G1") {
				continue
			}
			if f, ok := word(line, "F"); ok {
				if _, hasE := word(line, "E"); hasE && f > best {
					best = f
				}
			}
		}
		return best
	}
	// A 40mm perimeter at 60mm/s takes well under 60s; the slowdown must
	// scale feeds down compared to no minimum.
	fast := maxFeed(0)
	slow := maxFeed(60)
	if fast <= 0 || slow <= 0 {
		t.Fatal("no extrusion feeds found")
	}
	if slow >= fast {
		t.Errorf("min layer time did not slow the layer: %g >= %g", slow, fast)
	}
}

func TestEmitFanControl(t *testing.T) {
	cfg := slice.DefaultSettings() // fan 100% from layer 2, off below
	var buf bytes.Buffer
	if err := Emit(&buf, wallLayers(3), cfg, DefaultProfile()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "M107") {
		t.Error("expected fan off on the first layers")
	}
	if !strings.Contains(out, "M106 S255") {
		t.Error("expected full fan after the kick-in layer")
	}
}

func TestSegmentsEnterAtNearerEndpoint(t *testing.T) {
	cfg := slice.DefaultSettings()
	cfg.RetractionEnabled = false
	cfg.MinLayerTime = 0
	layers := []slice.Layer{{
		Z: 0.3, Index: 0,
		Infill: []poly.Segment{
			{r2.Vec{X: 0, Y: 0}, r2.Vec{X: 10, Y: 0}},
			// Listed far-end first; the emitter should flip it.
			{r2.Vec{X: 0, Y: 1}, r2.Vec{X: 10, Y: 1}},
		},
	}}
	var buf bytes.Buffer
	if err := Emit(&buf, layers, cfg, DefaultProfile()); err != nil {
		t.Fatal(err)
	}
	// After the first segment ends at X10 the travel to the second must
	// target X10 Y1, not X0 Y1.
	if !strings.Contains(buf.String(), "G0 X10.000 Y1.000") {
		t.Error("second segment was not entered at the nearer endpoint")
	}
}

func TestProfileValidate(t *testing.T) {
	good := DefaultProfile()
	if err := good.Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	cases := []func(*Profile){
		func(p *Profile) { p.NozzleDiameter = 0 },
		func(p *Profile) { p.FilamentDiameter = -1 },
		func(p *Profile) { p.BedSize = [2]float64{0, 220} },
		func(p *Profile) { p.MaxPrintSpeed = 0 },
		func(p *Profile) { p.StartGcode = "" },
		func(p *Profile) { p.EndGcode = "" },
	}
	for i, mutate := range cases {
		p := DefaultProfile()
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: invalid profile passed validation", i)
		}
	}
}

func TestExpandTemplate(t *testing.T) {
	got := expandTemplate("M104 S{print_temp}\nM140 S{bed_temp} ;{nozzle_diameter}mm", 215, 60, 0.4)
	want := "M104 S215\nM140 S60 ;0.4mm"
	if got != want {
		t.Errorf("expandTemplate = %q, want %q", got, want)
	}
	if got := expandTemplate("{unknown}", 1, 2, 3); got != "{unknown}" {
		t.Errorf("unknown token mangled: %q", got)
	}
}
