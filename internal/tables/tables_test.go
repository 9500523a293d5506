package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout/layouttest"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/sections"
)

var columns = []float64{40, 240, 340, 440, 540}

func rowLines(top float64, n int) []float64 {
	ys := make([]float64, n+1)
	for i := range ys {
		ys[i] = top + float64(i)*20
	}
	return ys
}

var (
	beforeRows = Table{
		{"Immediately before the transaction", "Direct Interest", "Deemed Interest", "Total"},
		{"No. of voting shares/units held:", "500,000", "0", "500,000"},
		{"As a percentage of voting shares/units:", "1.5", "0", "1.5"},
	}
	afterRows = Table{
		{"Immediately after the transaction", "Direct Interest", "Deemed Interest", "Total"},
		{"No. of voting shares/units held:", "600,000", "0", "600,000"},
		{"As a percentage of voting shares/units:", "1.8", "0", "1.8"},
	}
)

// interestTable returns a fresh copy of the before and after rows
func interestTable() Table {
	var out Table
	for _, row := range append(append(Table{}, beforeRows...), afterRows...) {
		out = append(out, append([]string(nil), row...))
	}
	return out
}

func TestFind_RuledGrid(t *testing.T) {
	want := interestTable()
	page := layouttest.NewPage(0).
		Table(columns, rowLines(100, len(want)), want).
		Checkbox(100, 400, true).
		Page()

	got := Find(page)
	require.Len(t, got, 1, "single-cell boxes are not tables")
	assert.Equal(t, want, got[0])
}

func TestFindIn_ClipsToSection(t *testing.T) {
	page := layouttest.NewPage(0).
		Table(columns, rowLines(100, len(beforeRows)), beforeRows).
		Table(columns, rowLines(400, len(afterRows)), afterRows).
		Page()

	got := FindIn(page, layout.BBox{X0: 0, Top: 300, X1: 595, Bottom: 842})
	require.Len(t, got, 1)
	assert.Equal(t, afterRows, got[0])

	assert.Len(t, Find(page), 2)
}

func TestFind_MissingCellsAreEmpty(t *testing.T) {
	rows := Table{{"a", "", "c", "d"}, {"e", "f", "", "h"}}
	page := layouttest.NewPage(0).Table(columns, rowLines(100, 2), rows).Page()

	got := Find(page)
	require.Len(t, got, 1)
	assert.Equal(t, rows, got[0])
}

func TestContainsShareRule(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  bool
	}{
		{name: "interest table", table: interestTable(), want: true},
		{name: "ordinary voting units", table: Table{{"No. of ordinary voting units held", "100"}}, want: true},
		{
			name:  "rights only",
			table: Table{{"No. of rights/options/warrants held", "100"}},
			want:  false,
		},
		{
			name:  "rights alongside voting shares",
			table: Table{{"Rights/options/warrants over voting shares/units", "100"}},
			want:  true,
		},
		{
			name:  "interest table without voting shares",
			table: Table{{"Immediately before the transaction", "Direct Interest", "Deemed Interest"}, {"Convertible debentures", "1", "0"}},
			want:  true,
		},
		{
			name:  "debentures only",
			table: Table{{"Principal amount of convertible debentures", "1,000,000"}},
			want:  false,
		},
		{name: "empty", table: Table{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsShareRule(tt.table))
		})
	}
}

func TestMerge(t *testing.T) {
	pctOnly := Table{{"As a percentage of total no. of voting shares/units:", "0", "0", "1.8"}}

	tests := []struct {
		name  string
		items []Located
		want  Table
	}{
		{name: "nothing", items: nil, want: nil},
		{name: "single", items: []Located{{Page: 2, Rows: beforeRows}}, want: beforeRows},
		{
			name:  "different header continues",
			items: []Located{{Page: 2, Rows: beforeRows}, {Page: 3, Rows: afterRows}},
			want:  interestTable(),
		},
		{
			name:  "percentage rows continue",
			items: []Located{{Page: 2, Rows: beforeRows}, {Page: 3, Rows: pctOnly}},
			want:  append(append(Table{}, beforeRows...), pctOnly...),
		},
		{
			name:  "same header is a repeat",
			items: []Located{{Page: 2, Rows: beforeRows}, {Page: 3, Rows: beforeRows}},
			want:  beforeRows,
		},
		{
			name:  "distant page is ignored",
			items: []Located{{Page: 2, Rows: beforeRows}, {Page: 5, Rows: afterRows}},
			want:  beforeRows,
		},
		{
			name:  "same page tables concatenate",
			items: []Located{{Page: 2, Rows: beforeRows}, {Page: 2, Rows: afterRows}},
			want:  interestTable(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.items))
		})
	}
}

func TestShareValues(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	t.Run("full table", func(t *testing.T) {
		got := ShareValues(interestTable())
		assert.Equal(t, Shares{Before: f(500000), BeforePct: f(1.5), After: f(600000), AfterPct: f(1.8)}, got)
		assert.False(t, got.Empty())
	})

	t.Run("short rows are skipped and later values move up", func(t *testing.T) {
		table := interestTable()
		table[2] = []string{"As a percentage"}
		got := ShareValues(table)
		assert.Equal(t, f(500000), got.Before)
		assert.Equal(t, f(600000), got.BeforePct)
		assert.Equal(t, f(1.8), got.After)
		assert.Nil(t, got.AfterPct)
	})

	t.Run("truncated table", func(t *testing.T) {
		got := ShareValues(interestTable()[:3])
		assert.Equal(t, f(500000), got.Before)
		assert.Equal(t, f(1.5), got.BeforePct)
		assert.Nil(t, got.After)
	})

	t.Run("unparseable cells", func(t *testing.T) {
		table := interestTable()
		table[1][totalColumn] = "-"
		table[4][totalColumn] = "N.A."
		got := ShareValues(table)
		assert.Nil(t, got.Before)
		assert.Nil(t, got.After)
		assert.True(t, got.Empty())
	})
}

func TestExtract_AcrossPages(t *testing.T) {
	rights := Table{{"No. of rights/options/warrants held", "", "", "10"}, {"x", "", "", "1"}}
	src := layout.Pages{
		layouttest.NewPage(0).
			Table(columns, rowLines(40, len(rights)), rights).
			Text(50, 90, "Name of Director/CEO: Tan Ah Kow").
			Table(columns, rowLines(700, len(beforeRows)), beforeRows).
			Page(),
		layouttest.NewPage(1).
			Table(columns, rowLines(60, len(afterRows)), afterRows).
			Page(),
		layouttest.NewPage(2).Text(50, 100, "Part III").Page(),
	}
	sec := sections.Section{PageNumber: 0, BBox: layout.BBox{X0: 0, Top: 90, X1: 595, Bottom: 842}}

	table, ok := Extract(src, sec)
	require.True(t, ok)
	assert.Equal(t, interestTable(), table)

	_, ok = Extract(src, sections.Section{PageNumber: 2, BBox: layout.BBox{X1: 595, Bottom: 842}})
	assert.False(t, ok)
}
