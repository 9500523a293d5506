// Package layouttest builds synthetic pages for layout-driven tests.
package layouttest

import (
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
)

// A4 portrait in points
const (
	PageWidth  = 595.0
	PageHeight = 842.0
	FontSize   = 10.0
)

// CharWidth is the advance of every synthetic glyph of the given size
func CharWidth(size float64) float64 { return size * 0.5 }

// Builder accumulates glyphs and drawings for one page
type Builder struct {
	page *layout.Page
}

// NewPage starts an A4 page with the given zero-based number
func NewPage(number int) *Builder {
	return &Builder{page: &layout.Page{Number: number, Width: PageWidth, Height: PageHeight}}
}

// Size overrides the page dimensions
func (b *Builder) Size(width, height float64) *Builder {
	b.page.Width = width
	b.page.Height = height
	return b
}

// Text places s with its top-left corner at (x, top) in the default font size
func (b *Builder) Text(x, top float64, s string) *Builder {
	return b.TextSized(x, top, FontSize, s)
}

// TextSized places s one glyph per rune, spaces included
func (b *Builder) TextSized(x, top, size float64, s string) *Builder {
	w := CharWidth(size)
	for _, r := range s {
		b.page.Glyphs = append(b.page.Glyphs, layout.Glyph{
			Text:     string(r),
			FontSize: size,
			BBox:     layout.BBox{X0: x, Top: top, X1: x + w, Bottom: top + size},
		})
		x += w
	}
	return b
}

// TextEnd returns the right edge of s placed at x in the default font size
func TextEnd(x float64, s string) float64 {
	return x + float64(len([]rune(s)))*CharWidth(FontSize)
}

// FilledBox adds a filled rectangle
func (b *Builder) FilledBox(box layout.BBox, fill layout.Color) *Builder {
	c := fill
	b.page.Drawings = append(b.page.Drawings, layout.Drawing{
		Rect:     box,
		Kind:     layout.KindFill,
		Fill:     &c,
		Segments: rectSegments(box),
	})
	return b
}

// StrokedBox adds a stroked, unfilled rectangle
func (b *Builder) StrokedBox(box layout.BBox) *Builder {
	c := layout.Black
	b.page.Drawings = append(b.page.Drawings, layout.Drawing{
		Rect:     box,
		Kind:     layout.KindStroke,
		Stroke:   &c,
		Segments: rectSegments(box),
	})
	return b
}

// Checkbox draws a 8pt box left of a label starting at labelX, filled black
// when checked and white otherwise
func (b *Builder) Checkbox(labelX, top float64, checked bool) *Builder {
	box := layout.BBox{X0: labelX - 12, Top: top, X1: labelX - 4, Bottom: top + 8}
	if checked {
		return b.FilledBox(box, layout.Black)
	}
	return b.FilledBox(box, layout.White)
}

// Option draws a checkbox followed by its label
func (b *Builder) Option(x, top float64, label string, checked bool) *Builder {
	return b.Checkbox(x, top, checked).Text(x, top, label)
}

// Grid rules a table with vertical lines at xs and horizontal lines at ys
func (b *Builder) Grid(xs, ys []float64) *Builder {
	if len(xs) < 2 || len(ys) < 2 {
		return b
	}
	left, right := xs[0], xs[len(xs)-1]
	top, bottom := ys[0], ys[len(ys)-1]
	for _, y := range ys {
		b.line(layout.Point{X: left, Y: y}, layout.Point{X: right, Y: y})
	}
	for _, x := range xs {
		b.line(layout.Point{X: x, Y: top}, layout.Point{X: x, Y: bottom})
	}
	return b
}

// Table rules a grid and writes rows into its cells, 2pt in from each cell
// corner
func (b *Builder) Table(xs, ys []float64, rows [][]string) *Builder {
	b.Grid(xs, ys)
	for r, row := range rows {
		if r+1 >= len(ys) {
			break
		}
		for c, cell := range row {
			if c+1 >= len(xs) || cell == "" {
				continue
			}
			b.Text(xs[c]+2, ys[r]+2, cell)
		}
	}
	return b
}

func (b *Builder) line(from, to layout.Point) {
	c := layout.Black
	rect := layout.BBox{X0: from.X, Top: from.Y, X1: to.X, Bottom: to.Y}
	b.page.Drawings = append(b.page.Drawings, layout.Drawing{
		Rect:     rect,
		Kind:     layout.KindStroke,
		Stroke:   &c,
		Segments: []layout.Segment{{From: from, To: to}},
	})
}

// Page returns the built page
func (b *Builder) Page() *layout.Page {
	return b.page
}

func rectSegments(box layout.BBox) []layout.Segment {
	tl := layout.Point{X: box.X0, Y: box.Top}
	tr := layout.Point{X: box.X1, Y: box.Top}
	br := layout.Point{X: box.X1, Y: box.Bottom}
	bl := layout.Point{X: box.X0, Y: box.Bottom}
	return []layout.Segment{{From: tl, To: tr}, {From: tr, To: br}, {From: br, To: bl}, {From: bl, To: tl}}
}
