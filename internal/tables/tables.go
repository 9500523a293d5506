// Package tables finds the shareholding tables of a disclosure section and
// stitches their continuations across pages.
package tables

import (
	"strings"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/detail"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/sections"
)

// Table is a grid of cell texts, row by row
type Table [][]string

// Located is a table together with the page it was found on
type Located struct {
	Page int   `json:"page"`
	Rows Table `json:"rows"`
}

// Shares are the holdings immediately before and after the transaction
type Shares struct {
	Before    *float64 `json:"shares_before"`
	BeforePct *float64 `json:"shares_before_percentage"`
	After     *float64 `json:"shares_after"`
	AfterPct  *float64 `json:"shares_after_percentage"`
}

// Empty reports whether neither the before nor the after holding is known
func (s Shares) Empty() bool {
	return s.Before == nil && s.After == nil
}

// number of pages after the section page scanned for continuations
const lookahead = 3

// rows of the merged table holding before, before %, after and after %
var valueRows = []int{1, 2, 4, 5}

// totalColumn is the "Total" column of the interest table
const totalColumn = 3

func (t Table) text() string {
	var parts []string
	for _, row := range t {
		for _, c := range row {
			if c != "" {
				parts = append(parts, c)
			}
		}
	}
	return strings.Join(strings.Fields(strings.ToLower(strings.Join(parts, " "))), " ")
}

// ContainsShareRule tells whether a table describes voting shares or units
func ContainsShareRule(t Table) bool {
	text := t.text()
	voting := strings.Contains(text, "voting shares/units") || strings.Contains(text, "ordinary voting units")
	rights := strings.Contains(text, "rights/options/warrants held") || strings.Contains(text, "rights/options/warrants over")

	if rights && !voting {
		return false
	}

	interestTable := (strings.Contains(text, "immediately before") || strings.Contains(text, "immediately after")) &&
		strings.Contains(text, "direct interest") && strings.Contains(text, "deemed interest")
	if interestTable {
		return voting || !rights
	}

	// convertible debenture tables only count alongside voting shares
	return voting
}

// Merge concatenates tables found on consecutive pages when the later one is
// a continuation: only "as a percentage" rows, or a header row different from
// the first table's
func Merge(items []Located) Table {
	if len(items) == 0 {
		return nil
	}
	merged := append(Table(nil), items[0].Rows...)

	for i := 1; i < len(items); i++ {
		cur := items[i].Rows
		if items[i].Page-items[i-1].Page > 1 || len(cur) == 0 {
			continue
		}
		if percentageOnly(cur) || len(merged) == 0 || !sameRow(cur[0], merged[0]) {
			merged = append(merged, cur...)
		}
	}
	return merged
}

func percentageOnly(t Table) bool {
	for _, row := range t {
		if !strings.Contains(strings.ToLower(strings.Join(row, " ")), "as a percentage") {
			return false
		}
	}
	return true
}

func sameRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Extract finds the shareholding tables of a section: the cropped section
// page followed by the next three full pages
func Extract(src layout.Source, sec sections.Section) (Table, bool) {
	var found []Located

	if page, ok := layout.Load(src, sec.PageNumber); ok {
		for _, t := range FindIn(page, sec.BBox) {
			found = append(found, Located{Page: sec.PageNumber, Rows: t})
		}
	}
	for i := sec.PageNumber + 1; i <= sec.PageNumber+lookahead && i < src.NumPages(); i++ {
		page, ok := layout.Load(src, i)
		if !ok {
			continue
		}
		for _, t := range Find(page) {
			found = append(found, Located{Page: i, Rows: t})
		}
	}

	var matching []Located
	for _, item := range found {
		if len(item.Rows) > 0 && ContainsShareRule(item.Rows) {
			matching = append(matching, item)
		}
	}
	if len(matching) == 0 {
		return nil, false
	}
	return Merge(matching), true
}

// ShareValues reads the Total column of rows 1, 2, 4 and 5. Rows that are
// missing or shorter than four cells are skipped and the remaining values
// fill the fields in order.
func ShareValues(t Table) Shares {
	var values []*float64
	for _, idx := range valueRows {
		if idx >= len(t) || len(t[idx]) <= totalColumn {
			continue
		}
		values = append(values, detail.ParseNumber(t[idx][totalColumn]))
	}

	var s Shares
	fields := []**float64{&s.Before, &s.BeforePct, &s.After, &s.AfterPct}
	for i, v := range values {
		*fields[i] = v
	}
	return s
}
