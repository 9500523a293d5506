package detail

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	tranchePattern = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(?:units?|shares?|securit(?:y|ies)|stapled\s+securit(?:y|ies))\s+at\s+(?:(?:an?\s+)?issue\s+)?(?:(?:an?\s+)?price\s+)?(?:of\s+)?(?:sg\$|s\$|usd|sgd|hkd|us\$|hk\$|\$)?\s*(\d[\d,]*(?:\.\d+)?)\s*per\s+(?:unit|share|security|stapled\s+security)`)

	datedQuantity = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s+(?:shares?|units?|securit(?:y|ies))\s+on\s+(\d{1,2}\s+\w+\s+\d{4})`)
	datedPrice    = regexp.MustCompile(`(?i)(?:paid\s+)?(?:sg\$|s\$|usd|sgd|hkd|us\$|hk\$|\$)?\s*(\d[\d,]*(?:\.\d+)?)\s+per\s+(?:share|unit|security)\s+on\s+(\d{1,2}\s+\w+\s+\d{4})`)
)

// minSpecialMatches is how many repetitions turn one answer into several
// transactions
const minSpecialMatches = 2

// SplitTranches expands base into one detail per "<qty> units at <price> per
// unit" tranche of the consideration phrase. ok is false when the phrase
// holds fewer than two tranches.
func (d *Deriver) SplitTranches(ctx context.Context, raw string, base Detail) ([]Detail, bool) {
	matches := tranchePattern.FindAllStringSubmatch(raw, -1)
	if len(matches) < minSpecialMatches {
		return nil, false
	}
	phrase := normalizePhrase(raw)

	out := make([]Detail, 0, len(matches))
	for _, m := range matches {
		qty, price := parseFloat(m[1]), parseFloat(m[2])
		if qty == nil || price == nil {
			continue
		}
		det := base
		det.NumberOfStock = qty
		d.priceTranche(ctx, &det, phrase, *qty, *price)
		out = append(out, det)
	}
	d.logger.Printf("split consideration into %d tranches", len(out))
	return out, true
}

// SplitByDate pairs "<n> shares on <date>" quantities with "<price> per share
// on <date>" prices. special reports whether both phrases carried at least
// two dated entries, even when fewer pairs share a date.
func (d *Deriver) SplitByDate(ctx context.Context, rawQty, rawValue string, base Detail) (out []Detail, special bool) {
	if rawQty == "" || rawValue == "" {
		return nil, false
	}
	quantities := datedQuantity.FindAllStringSubmatch(rawQty, -1)
	prices := datedPrice.FindAllStringSubmatch(rawValue, -1)
	if len(quantities) < minSpecialMatches || len(prices) < minSpecialMatches {
		return nil, false
	}
	phrase := normalizePhrase(rawValue)

	var dates []string
	qtyByDate := make(map[string]*float64)
	for _, m := range quantities {
		date := strings.TrimSpace(m[2])
		if _, seen := qtyByDate[date]; !seen {
			dates = append(dates, date)
		}
		qtyByDate[date] = parseFloat(m[1])
	}
	priceByDate := make(map[string]*float64)
	for _, m := range prices {
		priceByDate[strings.TrimSpace(m[2])] = parseFloat(m[1])
	}

	for _, date := range dates {
		qty, price := qtyByDate[date], priceByDate[date]
		if qty == nil || price == nil {
			continue
		}
		det := base
		det.TransactionDate = NormalizeDate(date)
		det.NumberOfStock = qty
		d.priceTranche(ctx, &det, phrase, *qty, *price)
		out = append(out, det)
	}
	d.logger.Printf("paired %d dated transactions", len(out))
	return out, true
}

// priceTranche sets the SGD price and value of one tranche. Both stay nil
// when the price cannot be converted to SGD.
func (d *Deriver) priceTranche(ctx context.Context, det *Detail, phrase string, qty, price float64) {
	det.PricePerShare, det.Value = nil, nil
	rate, ok := d.toSGD(ctx, phrase, price)
	if !ok {
		return
	}
	det.PricePerShare = &rate
	det.Value = tranche(qty, rate, d.Policy.TranchePrecision)
}

func tranche(qty, price float64, places int32) *float64 {
	v := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)).Round(places).InexactFloat64()
	return &v
}
