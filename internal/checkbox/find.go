package checkbox

import (
	"math"
	"regexp"
	"strings"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
)

// Geometry of the e-form checkboxes
const (
	// DefaultYTolerance is the largest top offset between a box and its label
	DefaultYTolerance = 10.0
	// DefaultDescribedYTolerance is used for free-text options, whose labels
	// often wrap
	DefaultDescribedYTolerance = 15.0

	descriptionIndent  = 20.0
	minDescriptionLen  = 3
	headerJoinDistance = 15.0
)

// FindOptions resolves each option against the blocks whose top lies in
// [yStart, yEnd)
func FindOptions(blocks []layout.TextBlock, drawings []layout.Drawing, options []OptionPattern, yStart, yEnd float64) Options {
	return findOptions(blocks, drawings, options, yStart, yEnd, DefaultYTolerance)
}

func findOptions(blocks []layout.TextBlock, drawings []layout.Drawing, options []OptionPattern, yStart, yEnd, tolerance float64) Options {
	out := make(Options, 0, len(options))
	for _, opt := range options {
		state := NotFound
		if block, ok := firstMatch(blocks, opt.Pattern, yStart, yEnd); ok {
			state = Unchecked
			if boxFilled(block, drawings, tolerance) {
				state = Checked
			}
		}
		out = append(out, Option{Name: opt.Name, State: state})
	}
	return out
}

// firstMatch returns the first block with yStart <= Top < yEnd matching re
func firstMatch(blocks []layout.TextBlock, re *regexp.Regexp, yStart, yEnd float64) (layout.TextBlock, bool) {
	for _, b := range blocks {
		if b.BBox.Top >= yStart && b.BBox.Top < yEnd && re.MatchString(b.Text) {
			return b, true
		}
	}
	return layout.TextBlock{}, false
}

// boxFilled looks for a non-white filled rectangle left of the block on the
// same line
func boxFilled(block layout.TextBlock, drawings []layout.Drawing, tolerance float64) bool {
	for _, d := range drawings {
		if math.Abs(d.Rect.Top-block.BBox.Top) >= tolerance {
			continue
		}
		if d.Rect.X1 > block.BBox.X0 || d.Kind != layout.KindFill {
			continue
		}
		if d.Fill != nil && !d.Fill.IsWhite() {
			return true
		}
	}
	return false
}

// Describe resolves a free-text option in [yStart, yEnd) and, when checked,
// collects the description written below its label
func Describe(blocks []layout.TextBlock, drawings []layout.Drawing, label *regexp.Regexp, yStart, yEnd float64) Described {
	return describe(blocks, drawings, label, yStart, yEnd, DefaultDescribedYTolerance)
}

func describe(blocks []layout.TextBlock, drawings []layout.Drawing, label *regexp.Regexp, yStart, yEnd, tolerance float64) Described {
	block, ok := firstMatch(blocks, label, yStart, yEnd)
	if !ok {
		return Described{State: NotFound}
	}
	if !boxFilled(block, drawings, tolerance) {
		return Described{State: Unchecked}
	}
	return Described{State: Checked, Description: descriptionBelow(blocks, block.BBox, yEnd)}
}

func descriptionBelow(blocks []layout.TextBlock, label layout.BBox, yEnd float64) string {
	var parts []string
	for _, b := range blocks {
		if b.BBox.Top < label.Bottom || b.BBox.Top >= yEnd {
			continue
		}
		if b.BBox.X0 < label.X0-descriptionIndent {
			continue
		}
		text := strings.TrimSpace(b.Text)
		if len(text) > minDescriptionLen {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Gather concatenates the blocks and drawings of up to maxPages pages from
// start, shifting each page down by the heights of the pages before it
func Gather(src layout.Source, start, maxPages int) ([]layout.TextBlock, []layout.Drawing) {
	var blocks []layout.TextBlock
	var drawings []layout.Drawing
	offset := 0.0

	for i := start; i < start+maxPages && i < src.NumPages(); i++ {
		page, ok := layout.Load(src, i)
		if !ok {
			break
		}
		if offset != 0 {
			page = page.Shift(offset)
		}
		blocks = append(blocks, page.Blocks()...)
		drawings = append(drawings, page.Drawings...)
		offset += page.Height
	}
	return blocks, drawings
}

// findHeader returns the box of the first block matching re, also trying the
// block joined with the line right below it for headers that wrap
func findHeader(blocks []layout.TextBlock, re *regexp.Regexp, accept func(layout.BBox) bool) (layout.BBox, bool) {
	for i, b := range blocks {
		if !accept(b.BBox) {
			continue
		}
		if re.MatchString(b.Text) {
			return b.BBox, true
		}
		if next, ok := nextLine(blocks, i); ok && re.MatchString(b.Text+" "+next.Text) {
			return b.BBox.Union(next.BBox), true
		}
	}
	return layout.BBox{}, false
}

func nextLine(blocks []layout.TextBlock, i int) (layout.TextBlock, bool) {
	cur := blocks[i].BBox
	for _, b := range blocks[i+1:] {
		if b.BBox.Top <= cur.Top+1 {
			continue
		}
		if b.BBox.Top-cur.Bottom <= headerJoinDistance && math.Abs(b.BBox.X0-cur.X0) <= descriptionIndent {
			return b, true
		}
		return layout.TextBlock{}, false
	}
	return layout.TextBlock{}, false
}

func anywhere(layout.BBox) bool { return true }
