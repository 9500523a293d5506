// Package symbol resolves SGX trading codes from issuer names.
package symbol

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strings"
)

// DefaultThreshold is the lowest accepted similarity score
const DefaultThreshold = 90

// Company is one listed issuer
type Company struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Scorer rates the similarity of two names from 0 to 100
type Scorer func(a, b string) float64

// Scorers are tried in order until one clears the threshold
var Scorers = []Scorer{Ratio, PartialRatio, TokenSortRatio, TokenSetRatio}

// Table matches issuer names against a list of listed companies
type Table struct {
	companies []Company
	names     []string
	threshold float64
	logger    *log.Logger
}

// NewTable creates a table. Companies without a name or symbol are skipped.
func NewTable(companies []Company, logger *log.Logger) *Table {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	t := &Table{threshold: DefaultThreshold, logger: logger}
	for _, c := range companies {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Symbol) == "" {
			continue
		}
		t.companies = append(t.companies, c)
		t.names = append(t.names, Normalize(c.Name))
	}
	return t
}

// WithThreshold returns the table with a different acceptance score
func (t *Table) WithThreshold(score float64) *Table {
	t.threshold = score
	return t
}

// Len returns the number of companies
func (t *Table) Len() int {
	return len(t.companies)
}

// Load reads companies as a JSON array, or as an object keyed by any id
func Load(r io.Reader, logger *log.Logger) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read company table: %w", err)
	}

	var list []Company
	if err := json.Unmarshal(data, &list); err == nil {
		return NewTable(list, logger), nil
	}

	var keyed map[string]Company
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("failed to parse company table: %w", err)
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		list = append(list, keyed[k])
	}
	return NewTable(list, logger), nil
}

// LoadFile reads a company table from disk
func LoadFile(path string, logger *log.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open company table: %w", err)
	}
	defer f.Close()
	return Load(f, logger)
}

// Resolve returns the symbol of the company best matching name
func (t *Table) Resolve(name string) (string, bool) {
	if t == nil || len(t.names) == 0 {
		return "", false
	}
	query := Normalize(name)
	if query == "" {
		return "", false
	}

	for i, scorer := range Scorers {
		best, score := -1, -1.0
		for j, candidate := range t.names {
			if s := scorer(query, candidate); s > score {
				best, score = j, s
			}
		}
		if math.Round(score) >= t.threshold {
			c := t.companies[best]
			t.logger.Printf("Matched %q to %s (%s) with scorer %d at %.1f", name, c.Symbol, c.Name, i, score)
			return c.Symbol, true
		}
	}
	t.logger.Printf("No company matches %q above %.0f", name, t.threshold)
	return "", false
}
