package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	defaultXTolerance = 3.0
	defaultYTolerance = 3.0
	blockYTolerance   = 2.0

	// a gap wider than blockGapFactor × font size splits a line into blocks
	blockGapFactor = 1.5
	minBlockGap    = 6.0
)

// TextOptions tunes plain-text reconstruction
type TextOptions struct {
	// XTolerance is the widest glyph gap that still joins two glyphs into one word
	XTolerance float64
	// YTolerance is the largest top offset between glyphs of the same line
	YTolerance float64
}

// DefaultTextOptions mirrors the tolerances used for section crops
func DefaultTextOptions() TextOptions {
	return TextOptions{XTolerance: 2, YTolerance: defaultYTolerance}
}

// RelaxedTextOptions is used when a whole page is rescanned after a section
// crop produced nothing
func RelaxedTextOptions() TextOptions {
	return TextOptions{XTolerance: defaultXTolerance, YTolerance: 4}
}

func isSpace(g Glyph) bool {
	return strings.TrimFunc(g.Text, unicode.IsSpace) == ""
}

// groupRows clusters glyphs into rows by their top edge and orders each row
// left to right
func groupRows(glyphs []Glyph, tolerance float64) [][]Glyph {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Top != sorted[j].BBox.Top {
			return sorted[i].BBox.Top < sorted[j].BBox.Top
		}
		return sorted[i].BBox.X0 < sorted[j].BBox.X0
	})

	var rows [][]Glyph
	current := []Glyph{sorted[0]}
	last := sorted[0].BBox.Top
	for _, g := range sorted[1:] {
		if g.BBox.Top-last <= tolerance {
			current = append(current, g)
		} else {
			rows = append(rows, current)
			current = []Glyph{g}
		}
		last = g.BBox.Top
	}
	rows = append(rows, current)

	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].BBox.X0 < row[j].BBox.X0 })
	}
	return rows
}

// joinWords renders a row as words separated by single spaces
func joinWords(row []Glyph, xTolerance float64) string {
	var b strings.Builder
	var word strings.Builder
	prevX1 := math.Inf(-1)

	flush := func() {
		if word.Len() == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word.String())
		word.Reset()
	}

	for _, g := range row {
		if isSpace(g) {
			flush()
			prevX1 = g.BBox.X1
			continue
		}
		if word.Len() > 0 && g.BBox.X0-prevX1 > xTolerance {
			flush()
		}
		word.WriteString(g.Text)
		prevX1 = g.BBox.X1
	}
	flush()
	return b.String()
}

// splitBlocks cuts a row at wide horizontal gaps
func splitBlocks(row []Glyph) []TextBlock {
	var blocks []TextBlock
	var run []Glyph
	prevX1 := math.Inf(-1)

	emit := func() {
		text := joinWords(run, defaultXTolerance)
		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, TextBlock{Text: text, BBox: rowBBox(run)})
		}
		run = nil
	}

	for _, g := range row {
		if isSpace(g) {
			if len(run) > 0 {
				run = append(run, g)
			}
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		gap := math.Max(blockGapFactor*size, minBlockGap)
		if len(run) > 0 && g.BBox.X0-prevX1 > gap {
			emit()
		}
		run = append(run, g)
		prevX1 = g.BBox.X1
	}
	if len(run) > 0 {
		emit()
	}
	return blocks
}

// rowBBox returns the union box of the non-blank glyphs of a row
func rowBBox(row []Glyph) BBox {
	var box BBox
	seen := false
	for _, g := range row {
		if isSpace(g) {
			continue
		}
		if !seen {
			box = g.BBox
			seen = true
			continue
		}
		box = box.Union(g.BBox)
	}
	if !seen && len(row) > 0 {
		return row[0].BBox
	}
	return box
}
