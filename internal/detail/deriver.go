// Package detail derives transaction date, quantity, consideration and price
// from the free-text answers of a disclosure.
package detail

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/fx"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/sections"
)

// Detail is one transaction's date, quantity and consideration. The raw
// phrases they were derived from are kept for diagnostics.
type Detail struct {
	TransactionDate *string  `json:"transaction_date"`
	NumberOfStock   *float64 `json:"number_of_stock"`
	Value           *float64 `json:"value"`
	PricePerShare   *float64 `json:"price_per_share"`

	RawQuantity string `json:"-"`
	RawValue    string `json:"-"`
}

// Empty reports whether neither quantity nor value is known
func (d Detail) Empty() bool {
	return d.NumberOfStock == nil && d.Value == nil
}

// Policy holds the tunable parts of value derivation
type Policy struct {
	ValuePrecision   int32    `yaml:"value_precision"`
	PricePrecision   int32    `yaml:"price_precision"`
	TranchePrecision int32    `yaml:"tranche_precision"`
	MultiplyCues     []string `yaml:"multiply_cues"`
}

// DefaultPolicy returns the rounding and cue settings used for SGX filings
func DefaultPolicy() Policy {
	return Policy{
		ValuePrecision:   4,
		PricePrecision:   4,
		TranchePrecision: 2,
		MultiplyCues:     []string{"share", "per unit", "security", "pursuant to"},
	}
}

// Deriver turns disclosure text into transaction details
type Deriver struct {
	FX     fx.Provider
	Policy Policy
	logger *log.Logger
}

// NewDeriver creates a deriver. A nil logger discards diagnostics.
func NewDeriver(provider fx.Provider, policy Policy, logger *log.Logger) *Deriver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Deriver{FX: provider, Policy: policy, logger: logger}
}

// FromText derives one detail from a block of text
func (d *Deriver) FromText(ctx context.Context, text string) Detail {
	det := Detail{
		TransactionDate: NormalizeDate(ExtractDate(text)),
		RawQuantity:     ExtractQuantityPhrase(text),
		RawValue:        ExtractConsiderationPhrase(text),
	}
	det.NumberOfStock = ParseNumber(det.RawQuantity)
	det.Value = d.Value(ctx, det.RawValue, det.NumberOfStock)
	det.PricePerShare = d.PricePerShare(ctx, det.RawValue, det.NumberOfStock)
	return det
}

// fallbackPages lists the pages rescanned, in order, when the section text
// yields neither quantity nor value: the section page itself, two pages
// forward, then two pages back
func fallbackPages(page int) []int {
	return []int{page, page + 1, page + 2, page - 1, page - 2}
}

// Extract derives the details of a section. special reports that the answer
// described several tranches or dated transactions, in which case more than
// one detail may be returned.
func (d *Deriver) Extract(ctx context.Context, src layout.Source, sec sections.Section) (details []Detail, special bool) {
	page, ok := layout.Load(src, sec.PageNumber)
	if !ok {
		return []Detail{{}}, false
	}
	text := page.Crop(sec.BBox).Text(layout.DefaultTextOptions())
	if strings.TrimSpace(text) == "" {
		return []Detail{{}}, false
	}

	det := d.FromText(ctx, text)
	if det.Empty() {
		det = d.fallback(ctx, src, det, fallbackPages(sec.PageNumber))
	}

	if split, ok := d.SplitTranches(ctx, det.RawValue, det); ok {
		return split, true
	}
	if split, ok := d.SplitByDate(ctx, det.RawQuantity, det.RawValue, det); ok {
		if len(split) > 1 {
			return split, true
		}
		return []Detail{det}, true
	}
	return []Detail{det}, false
}

// fallback rescans whole pages until one yields a quantity or a value. A date
// found earlier is kept.
func (d *Deriver) fallback(ctx context.Context, src layout.Source, det Detail, pages []int) Detail {
	for _, i := range pages {
		page, ok := layout.Load(src, i)
		if !ok {
			continue
		}
		next := d.FromText(ctx, page.Text(layout.RelaxedTextOptions()))
		if det.TransactionDate != nil {
			next.TransactionDate = det.TransactionDate
		}
		det = next
		if !det.Empty() {
			d.logger.Printf("transaction detail recovered from page %d", i+1)
			break
		}
	}
	return det
}
