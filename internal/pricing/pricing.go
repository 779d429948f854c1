// Package pricing generates detailed line-item quotes from deck
// structural models.
package pricing

import (
	"fmt"

	"github.com/kolmobuild/kolmo/internal/deck"
)

// Material prices (per linear foot unless noted).
var materialPrices = map[string]float64{
	// Framing lumber (pressure treated)
	"2x6_pt_lf":  1.25,
	"2x8_pt_lf":  1.55,
	"2x10_pt_lf": 1.85,
	"2x12_pt_lf": 2.40,
	"4x4_pt_lf":  2.10,
	"4x6_pt_lf":  3.20,
	"6x6_pt_lf":  4.80,

	// Decking (per linear foot)
	"trex_transcend_lf":  4.50,
	"trex_select_lf":     3.80,
	"timbertech_azek_lf": 5.20,
	"timbertech_pro_lf":  4.00,
	"cedar_decking_lf":   3.40,
	"pt_decking_lf":      1.80,

	// Hardware (each)
	"concrete_60lb_bag":     6.50,
	"joist_hanger":          3.50,
	"joist_hanger_lus210":   4.25,
	"post_base_pb44":        18.00,
	"post_base_pb66":        28.00,
	"post_cap_bc4":          12.00,
	"post_cap_bc6":          18.00,
	"ledger_bolt_half_inch": 1.20,
	"lag_screw_half_inch":   0.85,
	"carriage_bolt_half_in": 1.40,
	"deck_screws_lb":        8.50,
	"structural_screws_box": 45.00,

	// Railing (per linear foot)
	"cable_rail_lf":      45.00,
	"glass_rail_lf":      120.00,
	"aluminum_rail_lf":   55.00,
	"wood_rail_cedar_lf": 25.00,
	"wood_rail_pt_lf":    18.00,

	// Stairs
	"stair_stringer_each":        35.00,
	"stair_tread_composite_each": 28.00,
	"stair_tread_cedar_each":     18.00,
}

// Labor rates.
var laborRates = map[string]float64{
	"footing_each":           175.00, // Dig, form, pour, strip
	"framing_sqft":           14.00,  // Joists, beams, ledger, rim
	"decking_composite_sqft": 9.00,   // Composite install
	"decking_wood_sqft":      7.00,   // Wood install
	"railing_lf":             35.00,  // Any type, includes posts
	"stairs_tread_each":      225.00,
	"permit_filing":          250.00, // Admin time for permit prep/filing
	"cleanup_sqft":           0.50,
}

// Permit fees (Seattle SDCI).
const (
	sdciBaseFee          = 197.00
	sdciPer1000Valuation = 14.50
	planReviewMultiplier = 0.65 // 65% of permit fee
)

// Business factors.
const (
	WasteFactor = 1.10 // 10% waste on materials
	Margin      = 0.25 // 25% gross margin
)

// LineItem is a single line item in a quote.
type LineItem struct {
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	MaterialCost float64 `json:"material_cost"`
	LaborCost    float64 `json:"labor_cost"`
}

// Total returns material plus labor cost.
func (li LineItem) Total() float64 {
	return li.MaterialCost + li.LaborCost
}

// Quote is a complete quote with all line items and totals.
type Quote struct {
	LineItems []LineItem `json:"line_items"`

	MaterialsSubtotal float64 `json:"materials_subtotal"`
	LaborSubtotal     float64 `json:"labor_subtotal"`
	PermitFees        float64 `json:"permit_fees"`
	Subtotal          float64 `json:"subtotal"`
	MarginAmount      float64 `json:"margin_amount"`
	Total             float64 `json:"total"`

	// Metadata
	DeckSqFt      float64 `json:"deck_sqft"`
	PricePerSqFt  float64 `json:"price_per_sqft"`
}

// lumberPrice returns the price per LF for a nominal lumber size.
func lumberPrice(nominal string) float64 {
	if p, ok := materialPrices[nominal+"_pt_lf"]; ok {
		return p
	}
	return 2.00
}

// deckingPrice returns the decking material price per LF.
func deckingPrice(t deck.DeckingType) float64 {
	switch t {
	case deck.DeckingTrex:
		return materialPrices["trex_transcend_lf"]
	case deck.DeckingTimberTech:
		return materialPrices["timbertech_azek_lf"]
	case deck.DeckingCedar:
		return materialPrices["cedar_decking_lf"]
	case deck.DeckingPTWood:
		return materialPrices["pt_decking_lf"]
	default:
		return materialPrices["trex_transcend_lf"]
	}
}

// railingPrice returns the railing material price per LF.
func railingPrice(t deck.RailingType) float64 {
	switch t {
	case deck.RailingCable:
		return materialPrices["cable_rail_lf"]
	case deck.RailingGlass:
		return materialPrices["glass_rail_lf"]
	case deck.RailingAluminum:
		return materialPrices["aluminum_rail_lf"]
	case deck.RailingWood:
		return materialPrices["wood_rail_cedar_lf"]
	default:
		return 0
	}
}

// Calculate generates a detailed quote from a structural model.
func Calculate(structure *deck.Structure) *Quote {
	quote := &Quote{}
	site := structure.Input

	width := site.WidthFt
	depth := site.DepthFt
	sqft := width * depth
	quote.DeckSqFt = sqft

	// Footings
	footingCount := len(structure.Footings)
	bagsPerFooting := 4.0 // ~4 bags for 18" deep x 12-16" diameter

	footingMaterials := float64(footingCount)*bagsPerFooting*materialPrices["concrete_60lb_bag"] +
		float64(footingCount)*materialPrices["post_base_pb44"]
	footingLabor := float64(footingCount) * laborRates["footing_each"]

	quote.LineItems = append(quote.LineItems, LineItem{
		Category: "Footings",
		Description: fmt.Sprintf("%d concrete pier footings, %d\" dia x %d\" deep",
			footingCount, structure.FootingDiameterIn, site.FrostDepthIn),
		Quantity:     float64(footingCount),
		Unit:         "each",
		MaterialCost: footingMaterials * WasteFactor,
		LaborCost:    footingLabor,
	})

	// Posts (labor included in framing)
	var postLF float64
	for _, p := range structure.Posts {
		postLF += p.HeightFt
	}
	postMaterials := postLF*lumberPrice(structure.PostSize) +
		float64(len(structure.Posts))*materialPrices["post_cap_bc4"]

	quote.LineItems = append(quote.LineItems, LineItem{
		Category: "Posts",
		Description: fmt.Sprintf("%d %s posts, %.0f LF total",
			len(structure.Posts), structure.PostSize, postLF),
		Quantity:     float64(len(structure.Posts)),
		Unit:         "each",
		MaterialCost: postMaterials * WasteFactor,
	})

	// Beams (labor included in framing)
	var beamLF float64
	for _, b := range structure.Beams {
		beamLF += (b.XEndFt - b.XStartFt) * float64(b.Ply)
	}
	beamMaterials := beamLF * lumberPrice(structure.BeamSize)

	quote.LineItems = append(quote.LineItems, LineItem{
		Category: "Beams",
		Description: fmt.Sprintf("%d-%s beam, %.0f LF",
			structure.BeamPly, structure.BeamSize, beamLF),
		Quantity:     beamLF,
		Unit:         "LF",
		MaterialCost: beamMaterials * WasteFactor,
	})

	// Joists (hangers both ends; labor in framing line below)
	var joistLF float64
	for _, j := range structure.Joists {
		joistLF += j.YEndFt - j.YStartFt
	}
	joistPrice := lumberPrice(structure.JoistSize)
	joistMaterials := joistLF*joistPrice +
		float64(len(structure.Joists))*2*materialPrices["joist_hanger"]

	quote.LineItems = append(quote.LineItems, LineItem{
		Category: "Joists",
		Description: fmt.Sprintf("%d %s joists at %d\" O.C., %.0f LF",
			len(structure.Joists), structure.JoistSize, structure.JoistSpacingIn, joistLF),
		Quantity:     joistLF,
		Unit:         "LF",
		MaterialCost: joistMaterials * WasteFactor,
	})

	// Ledger and rim joists
	var ledgerLF float64
	if structure.Ledger != nil {
		ledgerLF = width
	}
	rimLF := depth*2 + width // Two sides + outer
	framingMiscLF := ledgerLF + rimLF

	// Ledger bolts at 16" O.C. staggered
	miscMaterials := framingMiscLF*joistPrice +
		(ledgerLF/16)*12*materialPrices["ledger_bolt_half_inch"]

	quote.LineItems = append(quote.LineItems, LineItem{
		Category:     "Ledger & Rim",
		Description:  fmt.Sprintf("Ledger board and rim joists, %.0f LF", framingMiscLF),
		Quantity:     framingMiscLF,
		Unit:         "LF",
		MaterialCost: miscMaterials * WasteFactor,
	})

	// Framing labor (combined)
	quote.LineItems = append(quote.LineItems, LineItem{
		Category:    "Framing Labor",
		Description: fmt.Sprintf("Complete framing installation, %.0f SF", sqft),
		Quantity:    sqft,
		Unit:        "SF",
		LaborCost:   sqft * laborRates["framing_sqft"],
	})

	// Decking: 5.5" wide boards, ~1 lb of screws per 4 SF
	deckingLF := sqft / (5.5 / 12)
	deckingMaterials := deckingLF*deckingPrice(site.DeckingType) +
		(sqft/4)*materialPrices["deck_screws_lb"]

	isComposite := site.DeckingType == deck.DeckingTrex || site.DeckingType == deck.DeckingTimberTech
	deckingRate := laborRates["decking_wood_sqft"]
	if isComposite {
		deckingRate = laborRates["decking_composite_sqft"]
	}

	quote.LineItems = append(quote.LineItems, LineItem{
		Category:     "Decking",
		Description:  fmt.Sprintf("%s decking, %.0f SF", site.DeckingType, sqft),
		Quantity:     sqft,
		Unit:         "SF",
		MaterialCost: deckingMaterials * WasteFactor,
		LaborCost:    sqft * deckingRate,
	})

	// Railing (if any)
	if site.RailingType != deck.RailingNone && site.RailingLF > 0 {
		quote.LineItems = append(quote.LineItems, LineItem{
			Category:     "Railing",
			Description:  fmt.Sprintf("%s railing, %.0f LF", site.RailingType, site.RailingLF),
			Quantity:     site.RailingLF,
			Unit:         "LF",
			MaterialCost: site.RailingLF * railingPrice(site.RailingType) * WasteFactor,
			LaborCost:    site.RailingLF * laborRates["railing_lf"],
		})
	}

	// Stairs (if any)
	if site.StairCount > 0 {
		const stringers = 3 // Standard 3 stringers
		stringerMaterials := stringers * materialPrices["stair_stringer_each"] * 1.5 // Adjusted for length
		treadMaterials := float64(site.StairCount) * materialPrices["stair_tread_composite_each"]

		quote.LineItems = append(quote.LineItems, LineItem{
			Category:     "Stairs",
			Description:  fmt.Sprintf("%d-tread staircase with 3 stringers", site.StairCount),
			Quantity:     float64(site.StairCount),
			Unit:         "treads",
			MaterialCost: (stringerMaterials + treadMaterials) * WasteFactor,
			LaborCost:    float64(site.StairCount) * laborRates["stairs_tread_each"],
		})
	}

	// Cleanup
	quote.LineItems = append(quote.LineItems, LineItem{
		Category:    "Cleanup",
		Description: "Site cleanup and debris removal",
		Quantity:    sqft,
		Unit:        "SF",
		LaborCost:   sqft * laborRates["cleanup_sqft"],
	})

	// Permits: SDCI fee scales with project value before permits
	var materialsSubtotal, laborSubtotal float64
	for _, li := range quote.LineItems {
		materialsSubtotal += li.MaterialCost
		laborSubtotal += li.LaborCost
	}
	projectValue := materialsSubtotal + laborSubtotal

	permitFee := sdciBaseFee + (projectValue/1000)*sdciPer1000Valuation
	planReview := permitFee * planReviewMultiplier
	totalPermit := permitFee + planReview + laborRates["permit_filing"]

	quote.LineItems = append(quote.LineItems, LineItem{
		Category:     "Permits",
		Description:  "SDCI permit fees + permit preparation",
		Quantity:     1,
		Unit:         "LS",
		MaterialCost: permitFee + planReview,
		LaborCost:    laborRates["permit_filing"],
	})

	// Totals
	quote.MaterialsSubtotal = 0
	quote.LaborSubtotal = 0
	for _, li := range quote.LineItems {
		quote.MaterialsSubtotal += li.MaterialCost
		quote.LaborSubtotal += li.LaborCost
	}
	quote.PermitFees = totalPermit
	quote.Subtotal = quote.MaterialsSubtotal + quote.LaborSubtotal
	quote.MarginAmount = quote.Subtotal * Margin / (1 - Margin)
	quote.Total = quote.Subtotal + quote.MarginAmount
	if sqft > 0 {
		quote.PricePerSqFt = quote.Total / sqft
	}

	return quote
}
