package slice

import (
	"math"
	"time"

	"github.com/soypat/slice/helpers/matter"
)

// heatAllowance is the fixed nozzle/bed heat-up time added to every print
// time estimate.
const heatAllowance = 5 * time.Minute

// EstimatePrintTime estimates the total print duration from already
// computed layers: a fixed heating allowance plus per-feature path length
// divided by feature speed. Layer 0 prints entirely at the first layer
// speed. Pure reduction, no new geometry.
func EstimatePrintTime(layers []Layer, s Settings) time.Duration {
	seconds := heatAllowance.Seconds()
	for i := range layers {
		l := &layers[i]
		wallSpeed, infillSpeed, skinSpeed := s.PrintSpeed, s.InfillSpeed, s.TopBottomSpeed
		if l.Index == 0 {
			// Layer 0 prints every feature at the first layer speed,
			// matching the emitted program.
			wallSpeed, infillSpeed, skinSpeed = s.FirstLayerSpeed, s.FirstLayerSpeed, s.FirstLayerSpeed
		}
		seconds += l.WallLength() / wallSpeed
		seconds += segmentsLength(l.Infill) / infillSpeed
		seconds += segmentsLength(l.TopBottom) / skinSpeed
		seconds += segmentsLength(l.Support) / infillSpeed
		seconds += l.BrimLength() / s.FirstLayerSpeed
	}
	return time.Duration(seconds * float64(time.Second))
}

// EstimateFilament estimates filament consumption from already computed
// layers, returning the filament length in meters and its weight in
// grams at the PLA reference density. Other materials are a caller
// concern: scale grams by density ratio.
func EstimateFilament(layers []Layer, s Settings) (meters, grams float64) {
	var pathLength float64 // mm
	for i := range layers {
		l := &layers[i]
		pathLength += l.PathLength()
	}
	sectionArea := s.LineWidth * s.LayerHeight // mm²
	volume := pathLength * sectionArea         // mm³
	grams = volume * matter.PLA.GramsPerMM3()
	filamentArea := math.Pi * s.FilamentDiameter * s.FilamentDiameter / 4
	if filamentArea > 0 {
		meters = volume / filamentArea / 1000
	}
	return meters, grams
}
