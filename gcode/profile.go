// Package gcode converts assembled layers into a textual motion program:
// feed-rate, extrusion, temperature and fan annotated moves bracketed by
// the printer's start/end templates.
package gcode

import (
	"errors"
	"fmt"
	"strings"
)

// Profile describes the target printer. The slicing core treats it as
// opaque configuration: only the documented template placeholders are
// substituted.
type Profile struct {
	Name string `json:"name"`
	// BedSize is the usable bed area in mm, X by Y.
	BedSize [2]float64 `json:"bed_size"`
	// BedHeight is the maximum build height in mm.
	BedHeight float64 `json:"bed_height"`
	// BedTempMax caps the heated bed; 0 means no heated bed.
	BedTempMax int `json:"bed_temp_max"`

	NozzleDiameter   float64 `json:"nozzle_diameter"`
	FilamentDiameter float64 `json:"filament_diameter"`
	// MaxPrintSpeed is the hardware feed ceiling in mm/s.
	MaxPrintSpeed float64 `json:"max_print_speed"`

	// StartGcode and EndGcode bracket the program. The placeholders
	// {print_temp}, {bed_temp} and {nozzle_diameter} are substituted.
	StartGcode string `json:"start_gcode"`
	EndGcode   string `json:"end_gcode"`
}

// DefaultProfile returns a generic 220x220 printer profile.
func DefaultProfile() Profile {
	return Profile{
		Name:             "Generic",
		BedSize:          [2]float64{220, 220},
		BedHeight:        250,
		BedTempMax:       100,
		NozzleDiameter:   0.4,
		FilamentDiameter: 1.75,
		MaxPrintSpeed:    200,
		StartGcode:       "G28\nG92 E0",
		EndGcode:         "M104 S0\nM140 S0\nM84",
	}
}

// Validate checks the profile fields emission depends on. A profile that
// fails validation makes emission fail; slicing success is unaffected.
func (p *Profile) Validate() error {
	switch {
	case p.BedSize[0] <= 0 || p.BedSize[1] <= 0:
		return fmt.Errorf("bed_size must be positive, got %v", p.BedSize)
	case p.NozzleDiameter <= 0:
		return fmt.Errorf("nozzle_diameter must be positive, got %g", p.NozzleDiameter)
	case p.FilamentDiameter <= 0:
		return fmt.Errorf("filament_diameter must be positive, got %g", p.FilamentDiameter)
	case p.MaxPrintSpeed <= 0:
		return fmt.Errorf("max_print_speed must be positive, got %g", p.MaxPrintSpeed)
	case p.StartGcode == "":
		return errors.New("missing start_gcode template")
	case p.EndGcode == "":
		return errors.New("missing end_gcode template")
	}
	return nil
}

// expandTemplate substitutes the documented placeholder tokens into a
// start/end template. Unknown tokens pass through untouched: the token
// grammar beyond the documented set is printer-firmware-defined.
func expandTemplate(tmpl string, printTemp, bedTemp int, nozzle float64) string {
	r := strings.NewReplacer(
		"{print_temp}", fmt.Sprintf("%d", printTemp),
		"{bed_temp}", fmt.Sprintf("%d", bedTemp),
		"{nozzle_diameter}", fmt.Sprintf("%g", nozzle),
	)
	return r.Replace(tmpl)
}
