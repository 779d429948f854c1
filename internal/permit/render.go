// Package permit renders permit drawings for deck structures per the
// Seattle Tip 312 prescriptive path: a top-down framing plan and a
// typical section with general notes.
package permit

import (
	"fmt"
	"image"
	"io"
	"math"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/kolmobuild/kolmo/internal/deck"
)

// Sheet dimensions in pixels, landscape 3:2 (ARCH D proportions).
const (
	sheetWidth  = 1800
	sheetHeight = 1200
	margin      = 40.0

	titleBlockWidth  = 280.0
	titleBlockHeight = 150.0
)

// Scale: pixels per model foot (1/2" = 1'-0" at screen resolution).
const pxPerFoot = 25.0

// Line weights.
const (
	lineHeavy    = 3.0
	lineMedium   = 1.5
	lineLight    = 0.8
	lineHairline = 0.4
)

// Renderer draws permit sheets for one structure.
type Renderer struct {
	structure *deck.Structure
	now       func() time.Time
}

// NewRenderer creates a renderer for the structure.
func NewRenderer(structure *deck.Structure) *Renderer {
	return &Renderer{structure: structure, now: time.Now}
}

// FramingPlan renders sheet 1, the top-down framing plan.
func (r *Renderer) FramingPlan() image.Image {
	dc := newSheet()
	r.drawBorder(dc)
	r.drawTitleBlock(dc, 1)

	s := r.structure
	width := s.Input.WidthFt
	depth := s.Input.DepthFt

	// Center the deck in the space left of the title block.
	originX := margin + 120 + width/2*pxPerFoot
	originY := sheetHeight/2 + depth/2*pxPerFoot

	// Model coords: +X along house, +Y away from house. Image Y grows
	// downward, so Y is flipped.
	toDraw := func(xFt, yFt float64) (float64, float64) {
		return originX + xFt*pxPerFoot, originY - yFt*pxPerFoot
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored("FRAMING PLAN", originX, originY-depth*pxPerFoot-30, 0.5, 0.5)

	// Deck outline
	dc.SetLineWidth(lineHeavy)
	x1, y1 := toDraw(-width/2, depth)
	dc.DrawRectangle(x1, y1, width*pxPerFoot, depth*pxPerFoot)
	dc.Stroke()

	// Ledger along the house wall
	if s.Ledger != nil {
		dc.SetLineWidth(lineMedium)
		lx1, ly := toDraw(-width/2, 0)
		lx2, _ := toDraw(width/2, 0)
		dc.DrawLine(lx1, ly, lx2, ly)
		dc.Stroke()
		dc.DrawString(fmt.Sprintf("LEDGER (%s)", s.JoistSize), lx2+8, ly)
	}

	// Joists
	dc.SetLineWidth(lineLight)
	for _, j := range s.Joists {
		jx, jy1 := toDraw(j.XFt, j.YStartFt)
		_, jy2 := toDraw(j.XFt, j.YEndFt)
		dc.DrawLine(jx, jy1, jx, jy2)
	}
	dc.Stroke()

	// Joist spacing callout at midpoint
	if len(s.Joists) >= 2 {
		mid := len(s.Joists) / 2
		jx1, jy := toDraw(s.Joists[mid-1].XFt, depth/2)
		jx2, _ := toDraw(s.Joists[mid].XFt, depth/2)

		dc.SetLineWidth(lineHairline)
		dc.DrawLine(jx1, jy-10, jx1, jy+10)
		dc.DrawLine(jx2, jy-10, jx2, jy+10)
		dc.DrawLine(jx1, jy, jx2, jy)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%d\" O.C. TYP", s.JoistSpacingIn),
			(jx1+jx2)/2, jy-16, 0.5, 0.5)
	}

	// Beams, dashed (below joists)
	dc.SetLineWidth(lineMedium)
	dc.SetDash(10, 5)
	for _, b := range s.Beams {
		bx1, by := toDraw(b.XStartFt, b.YFt)
		bx2, _ := toDraw(b.XEndFt, b.YFt)
		dc.DrawLine(bx1, by, bx2, by)
		dc.Stroke()
	}
	dc.SetDash()
	if len(s.Beams) > 0 {
		bx2, by := toDraw(s.Beams[0].XEndFt, s.Beams[0].YFt)
		dc.DrawString(fmt.Sprintf("BEAM (%d-%s)", s.BeamPly, s.BeamSize), bx2+8, by)
	}

	// Footings: circle with an X mark
	dc.SetLineWidth(lineMedium)
	radius := float64(s.FootingDiameterIn) / 12 / 2 * pxPerFoot
	for _, f := range s.Footings {
		fx, fy := toDraw(f.XFt, f.YFt)
		dc.DrawCircle(fx, fy, radius)
		dc.DrawLine(fx-radius*0.5, fy-radius*0.5, fx+radius*0.5, fy+radius*0.5)
		dc.DrawLine(fx-radius*0.5, fy+radius*0.5, fx+radius*0.5, fy-radius*0.5)
	}
	dc.Stroke()

	// Overall dimensions
	wx1, wy := toDraw(-width/2, -1.5)
	wx2, _ := toDraw(width/2, -1.5)
	drawDimension(dc, wx1, wy, wx2, wy, fmt.Sprintf("%.0f'-0\"", width))

	dx, dy1 := toDraw(width/2+1.5, 0)
	_, dy2 := toDraw(width/2+1.5, depth)
	drawDimension(dc, dx, dy1, dx, dy2, fmt.Sprintf("%.0f'-0\"", depth))

	// Framing notes
	notes := []string{
		fmt.Sprintf("1. Joists: %s at %d\" O.C.", s.JoistSize, s.JoistSpacingIn),
		fmt.Sprintf("2. Beam: %d-%s", s.BeamPly, s.BeamSize),
		fmt.Sprintf("3. Posts: %s", s.PostSize),
		fmt.Sprintf("4. Footings: %d\" dia. x %d\" deep", s.FootingDiameterIn, s.Input.FrostDepthIn),
		fmt.Sprintf("5. Ledger: %s, attach per IRC Table R507.9.1.3", s.JoistSize),
		"6. All lumber to be pressure treated or naturally durable",
		"7. All hardware to be hot-dipped galvanized or stainless steel",
	}
	drawNotes(dc, margin+20, margin+30, "FRAMING NOTES:", notes)

	return dc.Image()
}

// Section renders sheet 2, the typical cross section with general notes.
func (r *Renderer) Section() image.Image {
	dc := newSheet()
	r.drawBorder(dc)
	r.drawTitleBlock(dc, 2)

	s := r.structure
	depth := s.Input.DepthFt
	height := s.Input.HeightFt

	if len(s.Joists) == 0 || len(s.Beams) == 0 || len(s.Posts) == 0 || len(s.Footings) == 0 {
		return dc.Image()
	}
	joistLumber := s.Joists[0].Lumber
	beam := s.Beams[0]
	post := s.Posts[0]
	footing := s.Footings[0]

	// Elevations
	deckingThick := 1.0 / 12
	joistTop := height - deckingThick
	joistBottom := joistTop - joistLumber.HeightFt()
	beamBottom := joistBottom - beam.Lumber.HeightFt()
	postHeight := beamBottom

	originX := margin + 300.0
	originY := sheetHeight - margin - 300.0 // grade line

	// Section coords: Y away from house, Z up from grade.
	toDraw := func(yFt, zFt float64) (float64, float64) {
		return originX + yFt*pxPerFoot, originY - zFt*pxPerFoot
	}

	dc.SetRGB(0, 0, 0)
	tx, ty := toDraw(0, height+2)
	dc.DrawString("TYPICAL SECTION", tx-60, ty-20)

	// Grade line, dashed
	dc.SetLineWidth(lineLight)
	dc.SetDash(12, 6)
	gx1, gy := toDraw(-2, 0)
	gx2, _ := toDraw(depth+2, 0)
	dc.DrawLine(gx1, gy, gx2, gy)
	dc.Stroke()
	dc.SetDash()
	dc.DrawString("GRADE", gx2+8, gy)

	// House wall on the left
	dc.SetLineWidth(lineHeavy)
	wx, wy := toDraw(-0.5, height+2)
	wallWidth := 25.0
	wallHeight := (height + 2) * pxPerFoot
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.DrawRectangle(wx-wallWidth, wy, wallWidth, wallHeight)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0)
	dc.Stroke()
	dc.DrawString("HOUSE", wx-wallWidth-55, wy+wallHeight/2)

	// Footing below grade
	dc.SetLineWidth(lineMedium)
	footingWidth := float64(footing.DiameterIn) / 12 * pxPerFoot
	footingDepth := float64(footing.DepthIn) / 12 * pxPerFoot
	fx, fy := toDraw(beam.YFt, 0)
	dc.DrawRectangle(fx-footingWidth/2, fy, footingWidth, footingDepth)
	dc.Stroke()
	dc.DrawString(fmt.Sprintf("%d\" DIA PIER", footing.DiameterIn),
		fx+footingWidth/2+8, fy+footingDepth/2)

	// Post from grade to bottom of beam
	postWidth := post.Lumber.WidthFt() * pxPerFoot
	px, py := toDraw(beam.YFt, postHeight)
	dc.DrawRectangle(px-postWidth/2, py, postWidth, postHeight*pxPerFoot)
	dc.Stroke()
	dc.DrawString(fmt.Sprintf("%s POST", s.PostSize), px+postWidth/2+8, py+postHeight*pxPerFoot/2)

	// Beam
	beamWidth := beam.Lumber.WidthFt() * float64(beam.Ply) * pxPerFoot
	beamHeight := beam.Lumber.HeightFt() * pxPerFoot
	bx, by := toDraw(beam.YFt, joistBottom)
	dc.DrawRectangle(bx-beamWidth/2, by, beamWidth, beamHeight)
	dc.Stroke()

	// Joist field in profile
	joistHeight := joistLumber.HeightFt() * pxPerFoot
	jx1, jy := toDraw(0, joistTop)
	jx2, _ := toDraw(depth, joistTop)
	dc.DrawRectangle(jx1, jy, jx2-jx1, joistHeight)
	dc.Stroke()
	dc.DrawString(fmt.Sprintf("%s JOISTS @ %d\" O.C.", s.JoistSize, s.JoistSpacingIn),
		jx1+12, jy+joistHeight/2)

	// Decking line on top
	dc.SetLineWidth(lineHeavy)
	dx1, ddy := toDraw(0, height)
	dx2, _ := toDraw(depth, height)
	dc.DrawLine(dx1, ddy, dx2, ddy)
	dc.Stroke()

	// Height dimension
	hx, hy1 := toDraw(depth+2, 0)
	_, hy2 := toDraw(depth+2, height)
	drawDimension(dc, hx, hy1, hx, hy2, fmt.Sprintf("%.0f'-0\"", height))

	// Footing depth dimension
	dc.SetLineWidth(lineHairline)
	fdx, fdy1 := toDraw(beam.YFt+2, 0)
	fdy2 := fdy1 + footingDepth
	dc.DrawLine(fdx, fdy1, fdx, fdy2)
	dc.DrawLine(fdx-5, fdy1, fdx+5, fdy1)
	dc.DrawLine(fdx-5, fdy2, fdx+5, fdy2)
	dc.Stroke()
	dc.DrawString(fmt.Sprintf("%d\"", footing.DepthIn), fdx+8, (fdy1+fdy2)/2)

	// General notes
	notes := []string{
		"1. Design per Seattle Tip 312 Prescriptive Standards",
		"2. All lumber: Pressure treated SPF #2 or DF-L #2 min.",
		"3. All hardware: Hot-dipped galvanized or stainless steel",
		"4. Ledger: 1/2\" lag screws at 16\" O.C., staggered",
		"5. Joist hangers: Simpson LUS210 or equivalent at ledger",
		"6. Post base: Simpson PBS44 or equivalent",
		"7. Post cap: Simpson BC4 or equivalent",
		"8. Beam-to-post: Through-bolt with 1/2\" carriage bolts",
		"9. Verify all dimensions in field before construction",
		"10. Obtain required inspections per SDCI",
	}
	drawNotes(dc, sheetWidth-margin-titleBlockWidth-320, margin+30, "GENERAL NOTES:", notes)

	return dc.Image()
}

// WriteFramingPlanPNG renders sheet 1 and encodes it as PNG.
func (r *Renderer) WriteFramingPlanPNG(w io.Writer) error {
	if err := gg.NewContextForImage(r.FramingPlan()).EncodePNG(w); err != nil {
		return fmt.Errorf("encoding framing plan: %w", err)
	}
	return nil
}

// WriteSectionPNG renders sheet 2 and encodes it as PNG.
func (r *Renderer) WriteSectionPNG(w io.Writer) error {
	if err := gg.NewContextForImage(r.Section()).EncodePNG(w); err != nil {
		return fmt.Errorf("encoding section: %w", err)
	}
	return nil
}

// newSheet creates a white sheet context with the default font.
func newSheet() *gg.Context {
	dc := gg.NewContext(sheetWidth, sheetHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(basicfont.Face7x13)
	return dc
}

func (r *Renderer) drawBorder(dc *gg.Context) {
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(lineHeavy)
	dc.DrawRectangle(margin, margin, sheetWidth-2*margin, sheetHeight-2*margin)
	dc.Stroke()
}

func (r *Renderer) drawTitleBlock(dc *gg.Context, sheet int) {
	const totalSheets = 2

	tbX := sheetWidth - margin - titleBlockWidth
	tbY := sheetHeight - margin - titleBlockHeight

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(lineHeavy)
	dc.DrawRectangle(tbX, tbY, titleBlockWidth, titleBlockHeight)
	dc.Stroke()

	dc.SetLineWidth(lineLight)
	dc.DrawLine(tbX, tbY+40, tbX+titleBlockWidth, tbY+40)
	dc.DrawLine(tbX, tbY+titleBlockHeight-30, tbX+titleBlockWidth, tbY+titleBlockHeight-30)
	dc.Stroke()

	dc.DrawString("RESIDENTIAL DECK", tbX+10, tbY+18)
	dc.DrawString("Seattle Tip 312 Prescriptive", tbX+10, tbY+34)

	y := tbY + 56.0
	for i, line := range addressLines(r.structure.Input.SiteAddress) {
		if i >= 2 {
			break
		}
		dc.DrawString(line, tbX+10, y)
		y += 16
	}

	dc.DrawString("Scale: 1/2\" = 1'-0\"", tbX+10, tbY+titleBlockHeight-40)
	dc.DrawString("Date: "+r.now().Format("01/02/2006"), tbX+150, tbY+titleBlockHeight-40)

	dc.DrawString(fmt.Sprintf("Sheet %d of %d", sheet, totalSheets), tbX+10, tbY+titleBlockHeight-10)
	dc.DrawString("Kolmo Construction", tbX+150, tbY+titleBlockHeight-10)
}

// drawDimension draws a dimension line with end ticks and centered text.
// Works for horizontal and vertical runs.
func drawDimension(dc *gg.Context, x1, y1, x2, y2 float64, text string) {
	dc.SetLineWidth(lineHairline)
	dc.DrawLine(x1, y1, x2, y2)

	if math.Abs(y2-y1) < math.Abs(x2-x1) {
		// Horizontal: vertical end ticks, text above
		dc.DrawLine(x1, y1-8, x1, y1+8)
		dc.DrawLine(x2, y2-8, x2, y2+8)
		dc.Stroke()
		dc.DrawStringAnchored(text, (x1+x2)/2, y1-14, 0.5, 0.5)
	} else {
		// Vertical: horizontal end ticks, text beside
		dc.DrawLine(x1-8, y1, x1+8, y1)
		dc.DrawLine(x2-8, y2, x2+8, y2)
		dc.Stroke()
		dc.DrawStringAnchored(text, x1+24, (y1+y2)/2, 0, 0.5)
	}
}

func drawNotes(dc *gg.Context, x, y float64, title string, notes []string) {
	dc.SetRGB(0, 0, 0)
	dc.DrawString(title, x, y)
	for i, note := range notes {
		dc.DrawString(note, x, y+float64(i+1)*18)
	}
}

// addressLines splits a comma-separated site address into display lines.
func addressLines(addr string) []string {
	var lines []string
	for _, part := range strings.Split(addr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}
