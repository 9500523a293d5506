// Package review screens extracted records before they are stored, cleans
// them for publication and summarizes them per issuer.
package review

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/classify"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/filing"
)

// Item is a record together with the filing it came from
type Item struct {
	Symbol string `json:"symbol"`
	URL    string `json:"url"`
	filing.TransactionRecord
	HolderType string `json:"holder_type,omitempty"`
}

// Items flattens filings into one item per record
func Items(filings ...*filing.Filing) []Item {
	var out []Item
	for _, f := range filings {
		if f == nil {
			continue
		}
		for _, r := range f.Records {
			out = append(out, Item{Symbol: f.Symbol, URL: f.URL, TransactionRecord: r})
		}
	}
	return out
}

// Flag names a reason a record needs a human look
type Flag string

const (
	FlagMissingField      Flag = "missing_field"
	FlagQuantityMismatch  Flag = "quantity_mismatch"
	FlagDirectionMismatch Flag = "direction_mismatch"
	FlagPriceTooHigh      Flag = "price_too_high"
	FlagPriceInconsistent Flag = "price_inconsistent"
)

// Limits of the screening rules
const (
	MaxPricePerShare = 200.0
	PriceTolerance   = 0.05
)

// Flagged is an item held back from storage
type Flagged struct {
	Item
	Flags []Flag `json:"flags"`
}

// Check returns every rule the item breaks
func Check(it Item) []Flag {
	var flags []Flag
	r := it.TransactionRecord

	if it.Symbol == "" || r.TransactionDate == nil || r.SharesBefore == nil || r.SharesAfter == nil || r.TransactionType == nil {
		return []Flag{FlagMissingField}
	}

	diff := *r.SharesAfter - *r.SharesBefore
	if r.NumberOfStock != nil && *r.NumberOfStock != 0 && math.Abs(diff) != *r.NumberOfStock {
		flags = append(flags, FlagQuantityMismatch)
	}

	switch {
	case diff > 0 && *r.TransactionType != classify.Buy:
		flags = append(flags, FlagDirectionMismatch)
	case diff < 0 && *r.TransactionType != classify.Sell:
		flags = append(flags, FlagDirectionMismatch)
	}

	if r.PricePerShare != nil && *r.PricePerShare > MaxPricePerShare {
		flags = append(flags, FlagPriceTooHigh)
	}

	if r.Value != nil && r.NumberOfStock != nil && r.PricePerShare != nil && *r.NumberOfStock != 0 && *r.PricePerShare != 0 {
		price := *r.PricePerShare
		implied := *r.Value / *r.NumberOfStock
		if math.Abs(implied-price)/price > PriceTolerance {
			flags = append(flags, FlagPriceInconsistent)
		}
	}
	return flags
}

// Filter splits items into those fit for storage and those flagged
func Filter(items []Item) (insertable []Item, flagged []Flagged) {
	for _, it := range items {
		if flags := Check(it); len(flags) > 0 {
			flagged = append(flagged, Flagged{Item: it, Flags: flags})
			continue
		}
		insertable = append(insertable, it)
	}
	return insertable, flagged
}

var title = cases.Title(language.English)

// Clean prepares items for publication: upper-case names are title-cased,
// percentages become fractions and share counts whole numbers. The input is
// not modified.
func Clean(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		r := it.TransactionRecord

		if r.ShareholderName != nil && isUpper(*r.ShareholderName) {
			name := title.String(*r.ShareholderName)
			r.ShareholderName = &name
		}
		r.SharesBeforePct = fraction(r.SharesBeforePct)
		r.SharesAfterPct = fraction(r.SharesAfterPct)
		r.NumberOfStock = truncate(r.NumberOfStock)
		r.SharesBefore = truncate(r.SharesBefore)
		r.SharesAfter = truncate(r.SharesAfter)

		it.TransactionRecord = r
		if r.ShareholderName != nil {
			it.HolderType = HolderType(*r.ShareholderName)
		} else {
			it.HolderType = HolderType("")
		}
		out = append(out, it)
	}
	return out
}

// isUpper reports whether s has letters and none of them is lower case
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func fraction(pct *float64) *float64 {
	if pct == nil {
		return nil
	}
	v := decimal.NewFromFloat(*pct).Div(decimal.NewFromInt(100)).Round(5).InexactFloat64()
	return &v
}

func truncate(v *float64) *float64 {
	if v == nil {
		return nil
	}
	t := math.Trunc(*v)
	return &t
}

// Holder types
const (
	Insider     = "insider"
	Institution = "institution"
)

var institutionTokens = map[string]bool{
	"PTE": true, "LTD": true, "LIMITED": true, "LLP": true, "PLC": true, "INC": true,
	"CORP": true, "CORPORATION": true, "BHD": true, "SDN": true, "SA": true, "SARL": true,
	"BV": true, "NV": true, "GMBH": true, "AG": true, "SCSP": true, "TRUST": true,
	"REIT": true, "FUND": true, "CAPITAL": true, "HOLDINGS": true, "INVESTMENT": true,
	"MANAGEMENT": true, "NOMINEES": true, "CUSTODIAN": true, "BANK": true, "INSURANCE": true,
	"GOVERNMENT": true, "AUTHORITY": true, "MINISTRY": true, "FOUNDATION": true,
}

// HolderType tells an institutional holder from an individual insider by
// the legal-form words of its name
func HolderType(name string) string {
	clean := strings.NewReplacer(".", "", ",", "").Replace(strings.ToUpper(name))
	for _, tok := range strings.Fields(clean) {
		if institutionTokens[tok] {
			return Institution
		}
	}
	return Insider
}
