package slice

import (
	"fmt"

	"github.com/soypat/slice/infill"
)

// SeamPosition selects where each closed wall path starts.
type SeamPosition string

const (
	// SeamBack starts paths at the vertex nearest the rear of the bed.
	SeamBack SeamPosition = "back"
	// SeamRandom rotates the path start pseudo-randomly per layer.
	SeamRandom SeamPosition = "random"
	// SeamSharpest starts paths at the vertex with the smallest interior
	// angle, hiding the seam in a corner.
	SeamSharpest SeamPosition = "sharpest"
)

// Settings is the flat slicing configuration record. It is immutable for
// the duration of a slicing run and threaded read-only through every
// stage. All fields round-trip unchanged through JSON.
type Settings struct {
	// Layer / extrusion.
	LayerHeight      float64 `json:"layer_height"`
	FirstLayerHeight float64 `json:"first_layer_height"`
	LineWidth        float64 `json:"line_width"`     // absolute mm
	LineWidthPct     float64 `json:"line_width_pct"` // % of nozzle diameter
	NozzleDiameter   float64 `json:"nozzle_diameter"`
	FilamentDiameter float64 `json:"filament_diameter"`

	// Walls.
	WallCount        int          `json:"wall_count"`
	OuterBeforeInner bool         `json:"outer_before_inner"`
	SeamPosition     SeamPosition `json:"seam_position"`

	// Infill.
	InfillDensity    float64 `json:"infill_density"` // percent 0-100
	InfillPattern    string  `json:"infill_pattern"` // grid | lines | honeycomb
	InfillAngle      float64 `json:"infill_angle"`   // base angle, degrees
	InfillOverlap    float64 `json:"infill_overlap"` // % overlap into perimeter
	SparseBeforeWall bool    `json:"sparse_before_walls"`

	// Top / bottom.
	TopLayers    int     `json:"top_layers"`
	BottomLayers int     `json:"bottom_layers"`
	SkinOverlap  float64 `json:"skin_overlap"`

	// Brim.
	BrimEnabled bool    `json:"brim_enabled"`
	BrimWidth   float64 `json:"brim_width"` // mm

	// Retraction.
	RetractionEnabled     bool    `json:"retraction_enabled"`
	RetractionDistance    float64 `json:"retraction_distance"`     // mm
	RetractionSpeed       float64 `json:"retraction_speed"`        // mm/s
	RetractionZHop        float64 `json:"retraction_z_hop"`        // mm, 0 = off
	RetractionMinDistance float64 `json:"retraction_min_distance"` // mm, shorter travels skip retract
	RetractionExtraPrime  float64 `json:"retraction_extra_prime"`  // mm added back on prime

	// Speeds, mm/s.
	PrintSpeed          float64 `json:"print_speed"` // general / inner wall
	OuterPerimeterSpeed float64 `json:"outer_perimeter_speed"`
	TopBottomSpeed      float64 `json:"top_bottom_speed"`
	InfillSpeed         float64 `json:"infill_speed"`
	BridgeSpeed         float64 `json:"bridge_speed"`
	FirstLayerSpeed     float64 `json:"first_layer_speed"` // all features on layer 0
	TravelSpeed         float64 `json:"travel_speed"`

	// Temperatures, °C.
	PrintTemp           int `json:"print_temp"`
	PrintTempFirstLayer int `json:"print_temp_first_layer"`
	BedTemp             int `json:"bed_temp"`

	// Cooling.
	FanSpeed       int     `json:"fan_speed"`         // percent
	FanFirstLayer  int     `json:"fan_first_layer"`   // percent on layer 0
	FanKickInLayer int     `json:"fan_kick_in_layer"` // layer where fan starts
	MinLayerTime   float64 `json:"min_layer_time"`    // seconds

	// Spiralize / vase mode.
	SpiralizeMode bool `json:"spiralize_mode"`

	// Support.
	SupportEnabled          bool    `json:"support_enabled"`
	SupportThreshold        float64 `json:"support_threshold"` // overhang angle, degrees
	SupportDensity          float64 `json:"support_density"`   // percent
	SupportPattern          string  `json:"support_pattern"`
	SupportInterfaceEnabled bool    `json:"support_interface_enabled"`
	SupportInterfaceLayers  int     `json:"support_interface_layers"`
	SupportZDistance        float64 `json:"support_z_distance"`  // mm gap above/below
	SupportXYDistance       float64 `json:"support_xy_distance"` // mm gap from model sides
}

// DefaultSettings returns the stock configuration for a 0.4mm nozzle PLA
// print.
func DefaultSettings() Settings {
	return Settings{
		LayerHeight:      0.2,
		FirstLayerHeight: 0.3,
		LineWidth:        0.4,
		LineWidthPct:     100,
		NozzleDiameter:   0.4,
		FilamentDiameter: 1.75,

		WallCount:    3,
		SeamPosition: SeamBack,

		InfillDensity: 20,
		InfillPattern: "grid",
		InfillAngle:   45,
		InfillOverlap: 10,

		TopLayers:    4,
		BottomLayers: 4,
		SkinOverlap:  5,

		BrimWidth: 8,

		RetractionEnabled:     true,
		RetractionDistance:    5,
		RetractionSpeed:       45,
		RetractionMinDistance: 1.5,

		PrintSpeed:          60,
		OuterPerimeterSpeed: 40,
		TopBottomSpeed:      40,
		InfillSpeed:         80,
		BridgeSpeed:         25,
		FirstLayerSpeed:     25,
		TravelSpeed:         200,

		PrintTemp:           210,
		PrintTempFirstLayer: 215,
		BedTemp:             60,

		FanSpeed:       100,
		FanKickInLayer: 2,
		MinLayerTime:   5,

		SupportThreshold:        45,
		SupportDensity:          15,
		SupportPattern:          "lines",
		SupportInterfaceEnabled: true,
		SupportInterfaceLayers:  2,
		SupportZDistance:        0.2,
		SupportXYDistance:       0.7,
	}
}

// Validate checks ranges and enum fields once, at construction time,
// rather than at every point of use.
func (s *Settings) Validate() error {
	switch {
	case s.LayerHeight <= 0:
		return fmt.Errorf("layer_height must be positive, got %g", s.LayerHeight)
	case s.FirstLayerHeight <= 0:
		return fmt.Errorf("first_layer_height must be positive, got %g", s.FirstLayerHeight)
	case s.LineWidth <= 0:
		return fmt.Errorf("line_width must be positive, got %g", s.LineWidth)
	case s.FilamentDiameter <= 0:
		return fmt.Errorf("filament_diameter must be positive, got %g", s.FilamentDiameter)
	case s.WallCount < 0:
		return fmt.Errorf("wall_count must not be negative, got %d", s.WallCount)
	case s.InfillDensity < 0 || s.InfillDensity > 100:
		return fmt.Errorf("infill_density must be within [0,100], got %g", s.InfillDensity)
	case s.TopLayers < 0 || s.BottomLayers < 0:
		return fmt.Errorf("top/bottom layer counts must not be negative")
	case s.RetractionDistance < 0 || s.RetractionSpeed < 0:
		return fmt.Errorf("retraction parameters must not be negative")
	case s.SupportDensity < 0 || s.SupportDensity > 100:
		return fmt.Errorf("support_density must be within [0,100], got %g", s.SupportDensity)
	}
	for _, speed := range []float64{
		s.PrintSpeed, s.OuterPerimeterSpeed, s.TopBottomSpeed,
		s.InfillSpeed, s.BridgeSpeed, s.FirstLayerSpeed, s.TravelSpeed,
	} {
		if speed <= 0 {
			return fmt.Errorf("feature speeds must be positive")
		}
	}
	switch s.SeamPosition {
	case SeamBack, SeamRandom, SeamSharpest:
	default:
		return fmt.Errorf("unknown seam_position %q", s.SeamPosition)
	}
	if _, err := infill.ParsePattern(s.InfillPattern); err != nil {
		return err
	}
	if s.SupportEnabled {
		if _, err := infill.ParsePattern(s.SupportPattern); err != nil {
			return err
		}
	}
	return nil
}
