package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
)

// Ruling detection tolerances, in points
const (
	snapTolerance         = 3.0
	joinTolerance         = 3.0
	intersectionTolerance = 3.0
	minEdgeLength         = 3.0

	// a segment this close to axis-aligned counts as a ruling
	axisEpsilon = 0.5
)

type orientation int

const (
	horizontal orientation = iota
	vertical
)

// edge is an axis-aligned ruling. Horizontal edges have top == bottom,
// vertical edges x0 == x1.
type edge struct {
	orient              orientation
	x0, top, x1, bottom float64
}

type point struct {
	x, y float64
}

type cell struct {
	x0, top, x1, bottom float64
}

// Find returns the ruled tables of a page, top to bottom
func Find(page *layout.Page) []Table {
	return FindIn(page, page.Bounds())
}

// FindIn returns the ruled tables inside bbox, clipping rulings to it
func FindIn(page *layout.Page, bbox layout.BBox) []Table {
	edges := collectEdges(page.Drawings, bbox)
	edges = mergeEdges(edges)

	hits := intersections(edges)
	cells := findCells(hits)
	groups := groupCells(cells)

	glyphs := page.Crop(bbox).Glyphs
	out := make([]Table, 0, len(groups))
	for _, g := range groups {
		out = append(out, extractRows(g, glyphs))
	}
	return out
}

func collectEdges(drawings []layout.Drawing, clip layout.BBox) []edge {
	var out []edge
	add := func(from, to layout.Point) {
		switch {
		case math.Abs(from.Y-to.Y) < axisEpsilon:
			y := (from.Y + to.Y) / 2
			x0, x1 := math.Min(from.X, to.X), math.Max(from.X, to.X)
			if y < clip.Top || y > clip.Bottom {
				return
			}
			x0, x1 = math.Max(x0, clip.X0), math.Min(x1, clip.X1)
			if x1 > x0 {
				out = append(out, edge{orient: horizontal, x0: x0, top: y, x1: x1, bottom: y})
			}
		case math.Abs(from.X-to.X) < axisEpsilon:
			x := (from.X + to.X) / 2
			top, bottom := math.Min(from.Y, to.Y), math.Max(from.Y, to.Y)
			if x < clip.X0 || x > clip.X1 {
				return
			}
			top, bottom = math.Max(top, clip.Top), math.Min(bottom, clip.Bottom)
			if bottom > top {
				out = append(out, edge{orient: vertical, x0: x, top: top, x1: x, bottom: bottom})
			}
		}
	}

	for _, d := range drawings {
		if len(d.Segments) == 0 {
			r := d.Rect
			add(layout.Point{X: r.X0, Y: r.Top}, layout.Point{X: r.X1, Y: r.Top})
			add(layout.Point{X: r.X0, Y: r.Bottom}, layout.Point{X: r.X1, Y: r.Bottom})
			add(layout.Point{X: r.X0, Y: r.Top}, layout.Point{X: r.X0, Y: r.Bottom})
			add(layout.Point{X: r.X1, Y: r.Top}, layout.Point{X: r.X1, Y: r.Bottom})
			continue
		}
		for _, s := range d.Segments {
			add(s.From, s.To)
		}
	}
	return out
}

// mergeEdges snaps nearly collinear rulings together, joins touching ones and
// drops the short leftovers
func mergeEdges(edges []edge) []edge {
	var hs, vs []edge
	for _, e := range edges {
		if e.orient == horizontal {
			hs = append(hs, e)
		} else {
			vs = append(vs, e)
		}
	}

	hs = snap(hs, func(e *edge) *float64 { return &e.top }, func(e *edge) { e.bottom = e.top })
	vs = snap(vs, func(e *edge) *float64 { return &e.x0 }, func(e *edge) { e.x1 = e.x0 })

	var out []edge
	for _, e := range join(hs, func(e edge) float64 { return e.top }, func(e edge) (float64, float64) { return e.x0, e.x1 },
		func(e *edge, hi float64) { e.x1 = hi }) {
		if e.x1-e.x0 >= minEdgeLength {
			out = append(out, e)
		}
	}
	for _, e := range join(vs, func(e edge) float64 { return e.x0 }, func(e edge) (float64, float64) { return e.top, e.bottom },
		func(e *edge, hi float64) { e.bottom = hi }) {
		if e.bottom-e.top >= minEdgeLength {
			out = append(out, e)
		}
	}
	return out
}

// snap clusters edges by their fixed coordinate and moves every member to the
// cluster mean
func snap(edges []edge, coord func(*edge) *float64, sync func(*edge)) []edge {
	if len(edges) == 0 {
		return nil
	}
	sort.SliceStable(edges, func(i, j int) bool { return *coord(&edges[i]) < *coord(&edges[j]) })

	start := 0
	flush := func(end int) {
		sum := 0.0
		for i := start; i < end; i++ {
			sum += *coord(&edges[i])
		}
		mean := sum / float64(end-start)
		for i := start; i < end; i++ {
			*coord(&edges[i]) = mean
			sync(&edges[i])
		}
	}
	for i := 1; i < len(edges); i++ {
		if *coord(&edges[i])-*coord(&edges[i-1]) > snapTolerance {
			flush(i)
			start = i
		}
	}
	flush(len(edges))
	return edges
}

// join merges edges on the same line whose spans touch or overlap
func join(edges []edge, line func(edge) float64, span func(edge) (float64, float64), extend func(*edge, float64)) []edge {
	byLine := make(map[float64][]edge)
	var keys []float64
	for _, e := range edges {
		k := line(e)
		if _, ok := byLine[k]; !ok {
			keys = append(keys, k)
		}
		byLine[k] = append(byLine[k], e)
	}
	sort.Float64s(keys)

	var out []edge
	for _, k := range keys {
		group := byLine[k]
		sort.SliceStable(group, func(i, j int) bool {
			a, _ := span(group[i])
			b, _ := span(group[j])
			return a < b
		})
		cur := group[0]
		for _, e := range group[1:] {
			lo, hi := span(e)
			_, curHi := span(cur)
			if lo <= curHi+joinTolerance {
				if hi > curHi {
					extend(&cur, hi)
				}
				continue
			}
			out = append(out, cur)
			cur = e
		}
		out = append(out, cur)
	}
	return out
}

type crossing struct {
	h, v []int // indices of the edges meeting at the point
}

func intersections(edges []edge) map[point]*crossing {
	hits := make(map[point]*crossing)
	for vi, v := range edges {
		if v.orient != vertical {
			continue
		}
		for hi, h := range edges {
			if h.orient != horizontal {
				continue
			}
			if v.top <= h.top+intersectionTolerance &&
				v.bottom >= h.top-intersectionTolerance &&
				v.x0 >= h.x0-intersectionTolerance &&
				v.x0 <= h.x1+intersectionTolerance {
				p := point{x: v.x0, y: h.top}
				c, ok := hits[p]
				if !ok {
					c = &crossing{}
					hits[p] = c
				}
				c.h = append(c.h, hi)
				c.v = append(c.v, vi)
			}
		}
	}
	return hits
}

func shareEdge(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// findCells builds the smallest rectangles whose four corners are crossings
// joined by rulings
func findCells(hits map[point]*crossing) []cell {
	points := make([]point, 0, len(hits))
	for p := range hits {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].x != points[j].x {
			return points[i].x < points[j].x
		}
		return points[i].y < points[j].y
	})

	connects := func(a, b point) bool {
		if a.x == b.x && shareEdge(hits[a].v, hits[b].v) {
			return true
		}
		return a.y == b.y && shareEdge(hits[a].h, hits[b].h)
	}

	var cells []cell
	for i, pt := range points {
		var below, right []point
		for _, q := range points[i+1:] {
			if q.x == pt.x {
				below = append(below, q)
			}
			if q.y == pt.y {
				right = append(right, q)
			}
		}
		sort.Slice(right, func(a, b int) bool { return right[a].x < right[b].x })

	search:
		for _, b := range below {
			if !connects(pt, b) {
				continue
			}
			for _, r := range right {
				if !connects(pt, r) {
					continue
				}
				corner := point{x: r.x, y: b.y}
				if _, ok := hits[corner]; ok && connects(corner, r) && connects(corner, b) {
					cells = append(cells, cell{x0: pt.x, top: pt.y, x1: corner.x, bottom: corner.y})
					break search
				}
			}
		}
	}
	return cells
}

// groupCells splits cells into tables of cells sharing corners. Single-cell
// groups such as checkboxes are dropped.
func groupCells(cells []cell) [][]cell {
	corners := func(c cell) [4]point {
		return [4]point{{c.x0, c.top}, {c.x0, c.bottom}, {c.x1, c.top}, {c.x1, c.bottom}}
	}

	remaining := append([]cell(nil), cells...)
	var groups [][]cell
	for len(remaining) > 0 {
		group := []cell{remaining[0]}
		seen := make(map[point]bool)
		for _, p := range corners(remaining[0]) {
			seen[p] = true
		}
		remaining = remaining[1:]

		for changed := true; changed; {
			changed = false
			rest := remaining[:0]
			for _, c := range remaining {
				shared := false
				for _, p := range corners(c) {
					if seen[p] {
						shared = true
						break
					}
				}
				if !shared {
					rest = append(rest, c)
					continue
				}
				group = append(group, c)
				for _, p := range corners(c) {
					seen[p] = true
				}
				changed = true
			}
			remaining = rest
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ti, xi := origin(groups[i])
		tj, xj := origin(groups[j])
		if ti != tj {
			return ti < tj
		}
		return xi < xj
	})
	return groups
}

func origin(cells []cell) (float64, float64) {
	top, x0 := math.Inf(1), math.Inf(1)
	for _, c := range cells {
		if c.top < top || (c.top == top && c.x0 < x0) {
			top, x0 = c.top, c.x0
		}
	}
	return top, x0
}

// extractRows lays cells out as rows by top edge and columns by left edge;
// positions with no cell come back empty
func extractRows(cells []cell, glyphs []layout.Glyph) Table {
	var tops, lefts []float64
	seenTop := make(map[float64]bool)
	seenLeft := make(map[float64]bool)
	for _, c := range cells {
		if !seenTop[c.top] {
			seenTop[c.top] = true
			tops = append(tops, c.top)
		}
		if !seenLeft[c.x0] {
			seenLeft[c.x0] = true
			lefts = append(lefts, c.x0)
		}
	}
	sort.Float64s(tops)
	sort.Float64s(lefts)

	rowIdx := make(map[float64]int, len(tops))
	for i, t := range tops {
		rowIdx[t] = i
	}
	colIdx := make(map[float64]int, len(lefts))
	for i, x := range lefts {
		colIdx[x] = i
	}

	table := make(Table, len(tops))
	for i := range table {
		table[i] = make([]string, len(lefts))
	}
	opts := layout.TextOptions{XTolerance: 3, YTolerance: 3}
	for _, c := range cells {
		inner := &layout.Page{Glyphs: glyphsIn(glyphs, c)}
		table[rowIdx[c.top]][colIdx[c.x0]] = strings.TrimSpace(inner.Text(opts))
	}
	return table
}

// glyphsIn keeps glyphs whose centre lies in the half-open cell box
func glyphsIn(glyphs []layout.Glyph, c cell) []layout.Glyph {
	var out []layout.Glyph
	for _, g := range glyphs {
		cx := (g.BBox.X0 + g.BBox.X1) / 2
		cy := (g.BBox.Top + g.BBox.Bottom) / 2
		if cx >= c.x0 && cx < c.x1 && cy >= c.top && cy < c.bottom {
			out = append(out, g)
		}
	}
	return out
}
