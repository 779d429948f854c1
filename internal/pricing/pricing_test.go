package pricing

import (
	"math"
	"testing"

	"github.com/kolmobuild/kolmo/internal/deck"
)

func findItem(t *testing.T, q *Quote, category string) LineItem {
	t.Helper()
	for _, li := range q.LineItems {
		if li.Category == category {
			return li
		}
	}
	t.Fatalf("quote has no %q line item", category)
	return LineItem{}
}

func baseStructure(t *testing.T) *deck.Structure {
	t.Helper()
	s := deck.Generate(deck.SiteInput{
		WidthFt:          12,
		DepthFt:          10,
		HeightFt:         3,
		LedgerAttachment: deck.LedgerDirect,
		DeckingType:      deck.DeckingTrex,
	})
	if !s.Compliant {
		t.Fatalf("structure not compliant: %v", s.Errors)
	}
	return s
}

func TestCalculateBasics(t *testing.T) {
	q := Calculate(baseStructure(t))

	if q.DeckSqFt != 120 {
		t.Errorf("DeckSqFt = %.1f, want 120", q.DeckSqFt)
	}

	// Mandatory categories always present.
	for _, cat := range []string{"Footings", "Posts", "Beams", "Joists", "Ledger & Rim", "Framing Labor", "Decking", "Cleanup", "Permits"} {
		findItem(t, q, cat)
	}

	// No railing or stairs requested.
	for _, li := range q.LineItems {
		if li.Category == "Railing" || li.Category == "Stairs" {
			t.Errorf("unexpected %q line item", li.Category)
		}
	}
}

func TestCalculateTotals(t *testing.T) {
	q := Calculate(baseStructure(t))

	var materials, labor float64
	for _, li := range q.LineItems {
		materials += li.MaterialCost
		labor += li.LaborCost
	}

	if math.Abs(q.MaterialsSubtotal-materials) > 0.01 {
		t.Errorf("MaterialsSubtotal = %.2f, want sum %.2f", q.MaterialsSubtotal, materials)
	}
	if math.Abs(q.LaborSubtotal-labor) > 0.01 {
		t.Errorf("LaborSubtotal = %.2f, want sum %.2f", q.LaborSubtotal, labor)
	}
	if math.Abs(q.Subtotal-(materials+labor)) > 0.01 {
		t.Errorf("Subtotal = %.2f, want %.2f", q.Subtotal, materials+labor)
	}

	// 25% gross margin: margin = subtotal * m / (1 - m).
	wantMargin := q.Subtotal * Margin / (1 - Margin)
	if math.Abs(q.MarginAmount-wantMargin) > 0.01 {
		t.Errorf("MarginAmount = %.2f, want %.2f", q.MarginAmount, wantMargin)
	}
	if math.Abs(q.Total-(q.Subtotal+q.MarginAmount)) > 0.01 {
		t.Errorf("Total = %.2f, want %.2f", q.Total, q.Subtotal+q.MarginAmount)
	}
	if math.Abs(q.PricePerSqFt-q.Total/120) > 0.01 {
		t.Errorf("PricePerSqFt = %.2f, want %.2f", q.PricePerSqFt, q.Total/120)
	}
}

func TestCalculateFootings(t *testing.T) {
	s := baseStructure(t)
	q := Calculate(s)

	li := findItem(t, q, "Footings")
	n := float64(len(s.Footings))

	// 4 bags of concrete plus a post base per footing, with waste factor.
	wantMaterial := (n*4*6.50 + n*18.00) * WasteFactor
	if math.Abs(li.MaterialCost-wantMaterial) > 0.01 {
		t.Errorf("footing materials = %.2f, want %.2f", li.MaterialCost, wantMaterial)
	}
	if math.Abs(li.LaborCost-n*175.00) > 0.01 {
		t.Errorf("footing labor = %.2f, want %.2f", li.LaborCost, n*175.00)
	}
}

func TestCalculateFramingLabor(t *testing.T) {
	q := Calculate(baseStructure(t))

	li := findItem(t, q, "Framing Labor")
	if math.Abs(li.LaborCost-120*14.00) > 0.01 {
		t.Errorf("framing labor = %.2f, want %.2f", li.LaborCost, 120*14.00)
	}
	if li.MaterialCost != 0 {
		t.Errorf("framing labor materials = %.2f, want 0", li.MaterialCost)
	}
}

func TestCalculateRailingAndStairs(t *testing.T) {
	s := deck.Generate(deck.SiteInput{
		WidthFt:          12,
		DepthFt:          10,
		HeightFt:         3,
		LedgerAttachment: deck.LedgerDirect,
		RailingType:      deck.RailingCable,
		RailingLF:        30,
		StairCount:       4,
	})
	q := Calculate(s)

	rail := findItem(t, q, "Railing")
	if math.Abs(rail.MaterialCost-30*45.00*WasteFactor) > 0.01 {
		t.Errorf("railing materials = %.2f, want %.2f", rail.MaterialCost, 30*45.00*WasteFactor)
	}
	if math.Abs(rail.LaborCost-30*35.00) > 0.01 {
		t.Errorf("railing labor = %.2f, want %.2f", rail.LaborCost, 30*35.00)
	}

	stairs := findItem(t, q, "Stairs")
	wantStairMaterials := (3*35.00*1.5 + 4*28.00) * WasteFactor
	if math.Abs(stairs.MaterialCost-wantStairMaterials) > 0.01 {
		t.Errorf("stair materials = %.2f, want %.2f", stairs.MaterialCost, wantStairMaterials)
	}
	if math.Abs(stairs.LaborCost-4*225.00) > 0.01 {
		t.Errorf("stair labor = %.2f, want %.2f", stairs.LaborCost, 4*225.00)
	}
}

func TestDeckingLaborRateByMaterial(t *testing.T) {
	composite := Calculate(baseStructure(t))
	cedarStructure := deck.Generate(deck.SiteInput{
		WidthFt:          12,
		DepthFt:          10,
		HeightFt:         3,
		LedgerAttachment: deck.LedgerDirect,
		DeckingType:      deck.DeckingCedar,
	})
	cedar := Calculate(cedarStructure)

	compositeItem := findItem(t, composite, "Decking")
	cedarItem := findItem(t, cedar, "Decking")

	if math.Abs(compositeItem.LaborCost-120*9.00) > 0.01 {
		t.Errorf("composite decking labor = %.2f, want %.2f", compositeItem.LaborCost, 120*9.00)
	}
	if math.Abs(cedarItem.LaborCost-120*7.00) > 0.01 {
		t.Errorf("cedar decking labor = %.2f, want %.2f", cedarItem.LaborCost, 120*7.00)
	}
}

func TestPermitFeeScalesWithValue(t *testing.T) {
	small := Calculate(deck.Generate(deck.SiteInput{WidthFt: 8, DepthFt: 8, HeightFt: 2}))
	large := Calculate(deck.Generate(deck.SiteInput{WidthFt: 20, DepthFt: 14, HeightFt: 4}))

	smallPermit := findItem(t, small, "Permits")
	largePermit := findItem(t, large, "Permits")

	if largePermit.MaterialCost <= smallPermit.MaterialCost {
		t.Errorf("permit fee %.2f for large deck not above %.2f for small deck",
			largePermit.MaterialCost, smallPermit.MaterialCost)
	}
	// Filing labor is flat regardless of size.
	if smallPermit.LaborCost != largePermit.LaborCost {
		t.Errorf("permit filing labor differs: %.2f vs %.2f", smallPermit.LaborCost, largePermit.LaborCost)
	}
}

func TestLumberPriceFallback(t *testing.T) {
	if got := lumberPrice("2x10"); got != 1.85 {
		t.Errorf("lumberPrice(2x10) = %.2f, want 1.85", got)
	}
	if got := lumberPrice("3x7"); got != 2.00 {
		t.Errorf("lumberPrice(3x7) = %.2f, want fallback 2.00", got)
	}
}
