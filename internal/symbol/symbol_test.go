package symbol

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`The Acme Limited ("ACME")`, "acme ltd"},
		{"XYZ Public Company Limited", "xyz ltd"},
		{"iFAST Corporation Ltd.", "ifast corp ltd."},
		{"Other Holdings Limited", "other holdings ltd"},
		{"  Gamma   REIT ", "gamma reit"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestScorers(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("abc", "abc"))
	assert.Equal(t, 75.0, Ratio("abcd", "abce"))
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))

	assert.Equal(t, 100.0, PartialRatio("abc", "xxabcxx"))
	assert.Equal(t, 0.0, PartialRatio("", "abc"))

	assert.Equal(t, 100.0, TokenSortRatio("holdings acme", "acme holdings"))
	assert.Less(t, Ratio("holdings acme", "acme holdings"), 100.0)

	assert.Equal(t, 100.0, TokenSetRatio("acme holdings", "acme holdings group"))
}

func testTable() *Table {
	return NewTable([]Company{
		{Name: "ACME HOLDINGS LIMITED", Symbol: "A12"},
		{Name: "Beta Industries Corporation", Symbol: "B34"},
		{Name: "Gamma REIT", Symbol: "G56"},
		{Name: "", Symbol: "X"},
	}, nil)
}

func TestTable_Resolve(t *testing.T) {
	table := testTable()
	require.Equal(t, 3, table.Len())

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "suffix spelling", input: "Acme Holdings Ltd", want: "A12", ok: true},
		{name: "abbreviation in parentheses", input: `BETA INDUSTRIES CORPORATION ("BETA")`, want: "B34", ok: true},
		{name: "word order", input: "REIT Gamma", want: "G56", ok: true},
		{name: "unknown issuer", input: "Unrelated Shipping Pte Ltd", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Resolve(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	var none *Table
	_, ok := none.Resolve("Acme")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	list, err := Load(strings.NewReader(`[{"name":"Acme Holdings Limited","symbol":"A12"}]`), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Len())

	keyed, err := Load(strings.NewReader(`{"0":{"name":"Acme Holdings Limited","symbol":"A12"},"1":{"name":"Gamma REIT","symbol":"G56"}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, keyed.Len())
	got, ok := keyed.Resolve("gamma reit")
	assert.True(t, ok)
	assert.Equal(t, "G56", got)

	_, err = Load(strings.NewReader(`not json`), nil)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Gamma REIT","symbol":"G56"}]`), 0o600))

	table, err := LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}
