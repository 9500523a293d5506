package layout

import (
	"math"
	"sort"
	"strings"
)

// Default geometry used when a page omits or corrupts its boxes
const (
	defaultPageWidth  = 595.0
	defaultPageHeight = 842.0
	defaultFontSize   = 10.0

	// glyph box relative to the baseline, as fractions of the font size
	ascent  = 0.8
	descent = 0.2
)

// BBox is an axis-aligned box in page space with a top-left origin
type BBox struct {
	X0     float64 `json:"x0"`
	Top    float64 `json:"top"`
	X1     float64 `json:"x1"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the box
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box
func (b BBox) Height() float64 { return b.Bottom - b.Top }

// Union returns the smallest box containing both boxes
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0:     math.Min(b.X0, o.X0),
		Top:    math.Min(b.Top, o.Top),
		X1:     math.Max(b.X1, o.X1),
		Bottom: math.Max(b.Bottom, o.Bottom),
	}
}

// Intersects reports whether the boxes overlap or touch
func (b BBox) Intersects(o BBox) bool {
	return b.X0 <= o.X1 && o.X0 <= b.X1 && b.Top <= o.Bottom && o.Top <= b.Bottom
}

// ContainsPoint reports whether (x, y) lies inside the box, edges included
func (b BBox) ContainsPoint(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Top && y <= b.Bottom
}

// Shift returns the box translated vertically by dy
func (b BBox) Shift(dy float64) BBox {
	b.Top += dy
	b.Bottom += dy
	return b
}

// Color is a device RGB colour with components in [0,1]
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// White is the colour of an unticked form box
var White = Color{R: 1, G: 1, B: 1}

// Black is the initial fill and stroke colour of every graphics state
var Black = Color{}

// IsWhite reports whether the colour is white within rounding noise
func (c Color) IsWhite() bool {
	const eps = 0.005
	return c.R >= 1-eps && c.G >= 1-eps && c.B >= 1-eps
}

// DrawingKind tells how a path was painted
type DrawingKind int

const (
	KindFill DrawingKind = iota
	KindStroke
	KindFillStroke
)

// String returns the short painting code of the kind
func (k DrawingKind) String() string {
	switch k {
	case KindFill:
		return "f"
	case KindStroke:
		return "s"
	case KindFillStroke:
		return "fs"
	default:
		return "unknown"
	}
}

// Point is a position in page space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a straight piece of a painted path
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Drawing is one painted subpath. Fill is set for fills, Stroke for strokes.
type Drawing struct {
	Rect     BBox        `json:"rect"`
	Kind     DrawingKind `json:"kind"`
	Fill     *Color      `json:"fill,omitempty"`
	Stroke   *Color      `json:"stroke,omitempty"`
	Segments []Segment   `json:"segments,omitempty"`
}

// Shift returns a copy of the drawing translated vertically by dy
func (d Drawing) Shift(dy float64) Drawing {
	d.Rect = d.Rect.Shift(dy)
	if len(d.Segments) > 0 {
		segs := make([]Segment, len(d.Segments))
		for i, s := range d.Segments {
			segs[i] = Segment{
				From: Point{X: s.From.X, Y: s.From.Y + dy},
				To:   Point{X: s.To.X, Y: s.To.Y + dy},
			}
		}
		d.Segments = segs
	}
	return d
}

// Glyph is a positioned piece of text as emitted by the content stream
type Glyph struct {
	Text     string  `json:"text"`
	BBox     BBox    `json:"bbox"`
	FontSize float64 `json:"font_size"`
}

// TextBlock is a run of glyphs on one line with no wide horizontal gap
type TextBlock struct {
	Text string `json:"text"`
	BBox BBox   `json:"bbox"`
}

// Shift returns the block translated vertically by dy
func (b TextBlock) Shift(dy float64) TextBlock {
	b.BBox = b.BBox.Shift(dy)
	return b
}

// Line is a full text line of a page
type Line struct {
	Text string `json:"text"`
	BBox BBox   `json:"bbox"`
}

// Page holds the positioned primitives of one page. Pages are values: every
// transformation returns a new Page and leaves the receiver untouched.
type Page struct {
	Number   int       `json:"number"` // zero-based
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Glyphs   []Glyph   `json:"glyphs"`
	Drawings []Drawing `json:"drawings"`
}

// Bounds returns the full page box
func (p *Page) Bounds() BBox {
	return BBox{X0: 0, Top: 0, X1: p.Width, Bottom: p.Height}
}

// Crop keeps the glyphs whose centre lies in bbox and the drawings
// intersecting it
func (p *Page) Crop(bbox BBox) *Page {
	out := &Page{Number: p.Number, Width: p.Width, Height: p.Height}
	for _, g := range p.Glyphs {
		cx := (g.BBox.X0 + g.BBox.X1) / 2
		cy := (g.BBox.Top + g.BBox.Bottom) / 2
		if bbox.ContainsPoint(cx, cy) {
			out.Glyphs = append(out.Glyphs, g)
		}
	}
	for _, d := range p.Drawings {
		if bbox.Intersects(d.Rect) {
			out.Drawings = append(out.Drawings, d)
		}
	}
	return out
}

// Shift returns a copy of the page with every primitive moved down by dy
func (p *Page) Shift(dy float64) *Page {
	out := &Page{Number: p.Number, Width: p.Width, Height: p.Height}
	out.Glyphs = make([]Glyph, len(p.Glyphs))
	for i, g := range p.Glyphs {
		g.BBox = g.BBox.Shift(dy)
		out.Glyphs[i] = g
	}
	out.Drawings = make([]Drawing, len(p.Drawings))
	for i, d := range p.Drawings {
		out.Drawings[i] = d.Shift(dy)
	}
	return out
}

// Blocks groups the page glyphs into text blocks in reading order
func (p *Page) Blocks() []TextBlock {
	var blocks []TextBlock
	for _, row := range groupRows(p.Glyphs, blockYTolerance) {
		blocks = append(blocks, splitBlocks(row)...)
	}
	return blocks
}

// Lines returns the full-width text lines of the page in reading order
func (p *Page) Lines() []Line {
	return p.LinesWith(DefaultTextOptions())
}

// LinesWith returns the text lines built with custom tolerances
func (p *Page) LinesWith(opts TextOptions) []Line {
	rows := groupRows(p.Glyphs, opts.YTolerance)
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		text := joinWords(row, opts.XTolerance)
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, Line{Text: text, BBox: rowBBox(row)})
	}
	return lines
}

// Text reconstructs the plain text of the page, one line per row
func (p *Page) Text(opts TextOptions) string {
	lines := p.LinesWith(opts)
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// Search returns the boxes of the lines containing substr, case-insensitively
func (p *Page) Search(substr string) []BBox {
	needle := normalizeSpace(strings.ToLower(substr))
	if needle == "" {
		return nil
	}
	var found []BBox
	for _, l := range p.Lines() {
		hay := normalizeSpace(strings.ToLower(l.Text))
		if n := strings.Count(hay, needle); n > 0 {
			for i := 0; i < n; i++ {
				found = append(found, l.BBox)
			}
		}
	}
	return found
}

// SortDrawings orders drawings top-down then left-right
func SortDrawings(ds []Drawing) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Rect.Top != ds[j].Rect.Top {
			return ds[i].Rect.Top < ds[j].Rect.Top
		}
		return ds[i].Rect.X0 < ds[j].Rect.X0
	})
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
