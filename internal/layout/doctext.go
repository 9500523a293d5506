package layout

import (
	"math"
	"sort"
	"strings"
)

// Load reads page i from src. A partially read page is still returned; ok is
// false only when nothing could be read.
func Load(src Source, i int) (*Page, bool) {
	if i < 0 || i >= src.NumPages() {
		return nil, false
	}
	page, err := src.Page(i)
	if page == nil || (err != nil && len(page.Glyphs) == 0 && len(page.Drawings) == 0) {
		return nil, false
	}
	return page, true
}

// DocumentText renders pages [from, NumPages) as plain text, one line per
// rounded glyph top
func DocumentText(src Source, from int) string {
	if from < 0 {
		from = 0
	}
	var pages []string
	for i := from; i < src.NumPages(); i++ {
		page, ok := Load(src, i)
		if !ok {
			continue
		}
		if text := roundedLines(page.Glyphs); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n")
}

func roundedLines(glyphs []Glyph) string {
	rows := make(map[float64][]Glyph)
	for _, g := range glyphs {
		key := math.Round(g.BBox.Top)
		rows[key] = append(rows[key], g)
	}
	keys := make([]float64, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		row := rows[k]
		sort.SliceStable(row, func(i, j int) bool { return row[i].BBox.X0 < row[j].BBox.X0 })
		if text := joinWords(row, defaultXTolerance); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
