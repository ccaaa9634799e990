// Package matter holds printable filament material constants used by the
// estimators and profile defaults.
package matter

var (
	// PLA (polylactic acid) is the most widely used plastic filament
	// material in 3D printing and the reference density for filament
	// weight estimates.
	PLA = Filament{
		Name:       "PLA",
		Density:    1.24,
		PrintTemp:  210,
		BedTemp:    60,
		FanSpeed:   100,
		Retraction: 5,
		// thermal contraction after the heated bed turns off, plus
		// viscoelastic shrinkage.
		shrink:     0.2e-2,
		pullShrink: 0.45,
	}
	ABS = Filament{
		Name:       "ABS",
		Density:    1.04,
		PrintTemp:  240,
		BedTemp:    100,
		FanSpeed:   30,
		Retraction: 5,
		shrink:     0.6e-2,
		pullShrink: 0.5,
	}
	PETG = Filament{
		Name:       "PETG",
		Density:    1.27,
		PrintTemp:  235,
		BedTemp:    80,
		FanSpeed:   50,
		Retraction: 6,
		shrink:     0.3e-2,
		pullShrink: 0.45,
	}
)

// Filament describes one printable material.
type Filament struct {
	Name string
	// Density in g/cm³.
	Density float64
	// PrintTemp and BedTemp are the usual temperatures in °C.
	PrintTemp int
	BedTemp   int
	// FanSpeed is the usual part cooling setting in percent.
	FanSpeed int
	// Retraction is the usual retraction distance in mm.
	Retraction float64

	shrink     float64
	pullShrink float64
}

// GramsPerMM3 converts the material density to g/mm³ for volume based
// weight estimates.
func (f Filament) GramsPerMM3() float64 {
	return f.Density / 1000
}

// InternalDimScale compensates internal part dimensions for material
// shrinkage so holes and sockets come out at the requested size.
func (f Filament) InternalDimScale(real float64) float64 {
	if real <= 0 {
		panic("InternalDimScale only works for non-zero dimensions")
	}
	return real*(f.shrink+1) + f.pullShrink
}
