// Package deck converts site measurements into a code-compliant deck
// structure using the Seattle Tip 312 prescriptive span tables.
//
// Reference: https://www.seattle.gov/sdci/codes/common-code-questions/decks
package deck

// DeckingType identifies the decking surface material.
type DeckingType string

const (
	DeckingTrex       DeckingType = "trex"
	DeckingTimberTech DeckingType = "timbertech"
	DeckingCedar      DeckingType = "cedar"
	DeckingPTWood     DeckingType = "pt_wood"
)

// Valid reports whether the decking type is a known material.
func (d DeckingType) Valid() bool {
	switch d {
	case DeckingTrex, DeckingTimberTech, DeckingCedar, DeckingPTWood:
		return true
	}
	return false
}

// RailingType identifies the railing system.
type RailingType string

const (
	RailingNone     RailingType = "none"
	RailingWood     RailingType = "wood"
	RailingCable    RailingType = "cable"
	RailingGlass    RailingType = "glass"
	RailingAluminum RailingType = "aluminum"
)

// Valid reports whether the railing type is known.
func (r RailingType) Valid() bool {
	switch r {
	case RailingNone, RailingWood, RailingCable, RailingGlass, RailingAluminum:
		return true
	}
	return false
}

// LedgerAttachment describes how the deck connects to the house.
type LedgerAttachment string

const (
	// LedgerDirect is bolted to the rim joist.
	LedgerDirect LedgerAttachment = "direct"
	// LedgerStandoff uses spacers for drainage.
	LedgerStandoff LedgerAttachment = "standoff"
	// Freestanding has no ledger; beams carry both ends.
	Freestanding LedgerAttachment = "freestanding"
)

// Valid reports whether the attachment mode is known.
func (l LedgerAttachment) Valid() bool {
	switch l {
	case LedgerDirect, LedgerStandoff, Freestanding:
		return true
	}
	return false
}

// LumberSpec is a lumber size with its actual (dressed) dimensions.
type LumberSpec struct {
	Nominal  string  `json:"nominal"`   // "2x10"
	WidthIn  float64 `json:"width_in"`  // 1.5
	HeightIn float64 `json:"height_in"` // 9.25
}

// WidthFt returns the dressed width in feet.
func (l LumberSpec) WidthFt() float64 { return l.WidthIn / 12 }

// HeightFt returns the dressed height in feet.
func (l LumberSpec) HeightFt() float64 { return l.HeightIn / 12 }

// lumberSpecs maps nominal sizes to dressed dimensions.
var lumberSpecs = map[string]LumberSpec{
	"2x6":  {Nominal: "2x6", WidthIn: 1.5, HeightIn: 5.5},
	"2x8":  {Nominal: "2x8", WidthIn: 1.5, HeightIn: 7.25},
	"2x10": {Nominal: "2x10", WidthIn: 1.5, HeightIn: 9.25},
	"2x12": {Nominal: "2x12", WidthIn: 1.5, HeightIn: 11.25},
	"4x4":  {Nominal: "4x4", WidthIn: 3.5, HeightIn: 3.5},
	"4x6":  {Nominal: "4x6", WidthIn: 3.5, HeightIn: 5.5},
	"4x8":  {Nominal: "4x8", WidthIn: 3.5, HeightIn: 7.25},
	"4x10": {Nominal: "4x10", WidthIn: 3.5, HeightIn: 9.25},
	"4x12": {Nominal: "4x12", WidthIn: 3.5, HeightIn: 11.25},
	"6x6":  {Nominal: "6x6", WidthIn: 5.5, HeightIn: 5.5},
}

// Lumber returns the spec for a nominal size.
func Lumber(nominal string) (LumberSpec, bool) {
	spec, ok := lumberSpecs[nominal]
	return spec, ok
}

// SiteInput holds real measurements from a site visit.
type SiteInput struct {
	// Dimensions (required)
	WidthFt  float64 `json:"width_ft"`  // Parallel to house
	DepthFt  float64 `json:"depth_ft"`  // Perpendicular to house
	HeightFt float64 `json:"height_ft"` // Grade to top of decking

	// Site conditions
	LedgerAttachment LedgerAttachment `json:"ledger_attachment"`
	SoilBearingPSF   int              `json:"soil_bearing_psf"`
	FrostDepthIn     int              `json:"frost_depth_in"`
	SlopePercent     float64          `json:"slope_percent"`

	// Customer selections
	DeckingType DeckingType `json:"decking_type"`
	RailingType RailingType `json:"railing_type"`
	RailingLF   float64     `json:"railing_lf"` // Linear feet of railing
	StairCount  int         `json:"stair_count"`

	// Project info
	CustomerName string `json:"customer_name"`
	SiteAddress  string `json:"site_address"`
}

// Normalize fills conservative defaults for unset site conditions.
func (s *SiteInput) Normalize() {
	if s.LedgerAttachment == "" {
		s.LedgerAttachment = LedgerDirect
	}
	if s.SoilBearingPSF == 0 {
		s.SoilBearingPSF = 1500
	}
	if s.FrostDepthIn == 0 {
		s.FrostDepthIn = 18 // Seattle default
	}
	if s.DeckingType == "" {
		s.DeckingType = DeckingTrex
	}
	if s.RailingType == "" {
		s.RailingType = RailingNone
	}
}

// Footing is a concrete pier footing.
type Footing struct {
	XFt        float64 `json:"x_ft"`
	YFt        float64 `json:"y_ft"`
	DiameterIn int     `json:"diameter_in"`
	DepthIn    int     `json:"depth_in"`
}

// Post is a vertical support post.
type Post struct {
	XFt      float64    `json:"x_ft"`
	YFt      float64    `json:"y_ft"`
	HeightFt float64    `json:"height_ft"`
	Lumber   LumberSpec `json:"lumber"`
}

// Beam is a horizontal beam supporting joists.
type Beam struct {
	XStartFt float64    `json:"x_start_ft"`
	XEndFt   float64    `json:"x_end_ft"`
	YFt      float64    `json:"y_ft"`
	ZFt      float64    `json:"z_ft"` // Bottom of beam elevation
	Lumber   LumberSpec `json:"lumber"`
	Ply      int        `json:"ply"` // 1 for solid, 2 for doubled
}

// Joist is a floor joist.
type Joist struct {
	XFt      float64    `json:"x_ft"`
	YStartFt float64    `json:"y_start_ft"`
	YEndFt   float64    `json:"y_end_ft"`
	ZFt      float64    `json:"z_ft"` // Bottom of joist elevation
	Lumber   LumberSpec `json:"lumber"`
}

// Ledger is the board bolted to the house wall.
type Ledger struct {
	XStartFt   float64          `json:"x_start_ft"`
	XEndFt     float64          `json:"x_end_ft"`
	YFt        float64          `json:"y_ft"`
	ZFt        float64          `json:"z_ft"`
	Lumber     LumberSpec       `json:"lumber"`
	Attachment LedgerAttachment `json:"attachment"`
}

// RimJoist closes the joist field at the deck perimeter.
// Side rims run in Y at a fixed X; the outer rim runs in X at a fixed Y.
type RimJoist struct {
	Location string     `json:"location"` // "left", "right", "outer"
	XFt      float64    `json:"x_ft,omitempty"`
	XStartFt float64    `json:"x_start_ft,omitempty"`
	XEndFt   float64    `json:"x_end_ft,omitempty"`
	YFt      float64    `json:"y_ft,omitempty"`
	YStartFt float64    `json:"y_start_ft,omitempty"`
	YEndFt   float64    `json:"y_end_ft,omitempty"`
	Lumber   LumberSpec `json:"lumber"`
}

// Structure is the complete structural model produced by Generate.
//
// Coordinate system: origin at center of ledger (house wall), +X along
// the house, +Y away from the house, +Z up from grade.
type Structure struct {
	Input SiteInput `json:"input"`

	// Structural members
	Footings  []Footing  `json:"footings"`
	Posts     []Post     `json:"posts"`
	Beams     []Beam     `json:"beams"`
	Joists    []Joist    `json:"joists"`
	Ledger    *Ledger    `json:"ledger,omitempty"`
	RimJoists []RimJoist `json:"rim_joists"`

	// Selected sizes (for easy reference)
	JoistSize         string `json:"joist_size"`
	JoistSpacingIn    int    `json:"joist_spacing_in"`
	BeamSize          string `json:"beam_size"`
	BeamPly           int    `json:"beam_ply"`
	PostSize          string `json:"post_size"`
	FootingDiameterIn int    `json:"footing_diameter_in"`

	// Compliance status
	Compliant bool     `json:"compliant"`
	Notes     []string `json:"notes"`
	Errors    []string `json:"errors"`
}
