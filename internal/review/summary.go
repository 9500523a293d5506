package review

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/classify"
)

// Summary is the net trading of one issuer over a batch
type Summary struct {
	Symbol           string  `json:"symbol"`
	TransactionType  string  `json:"transaction_type"`
	NetShares        int64   `json:"net_shares"`
	PricePerShare    float64 `json:"price_per_share"`
	TransactionValue int64   `json:"transaction_value"`
}

type tally struct {
	buyShares, sellShares, otherShares decimal.Decimal
	buyValue, sellValue, otherValue    decimal.Decimal
	trades                             bool
}

// Summarize nets buys against sells per symbol. Symbols with only other
// transaction types report their average price. Items without a symbol,
// quantity or price are skipped.
func Summarize(items []Item) []Summary {
	tallies := make(map[string]*tally)
	for _, it := range items {
		r := it.TransactionRecord
		if it.Symbol == "" || r.NumberOfStock == nil || r.PricePerShare == nil {
			continue
		}
		t, ok := tallies[it.Symbol]
		if !ok {
			t = &tally{}
			tallies[it.Symbol] = t
		}
		amount := decimal.NewFromFloat(*r.NumberOfStock).Truncate(0)
		value := amount.Mul(decimal.NewFromFloat(*r.PricePerShare))

		typ := ""
		if r.TransactionType != nil {
			typ = *r.TransactionType
		}
		switch typ {
		case classify.Buy:
			t.buyShares = t.buyShares.Add(amount)
			t.buyValue = t.buyValue.Add(value)
			t.trades = true
		case classify.Sell:
			t.sellShares = t.sellShares.Add(amount)
			t.sellValue = t.sellValue.Add(value)
			t.trades = true
		default:
			t.otherShares = t.otherShares.Add(amount)
			t.otherValue = t.otherValue.Add(value)
		}
	}

	out := make([]Summary, 0, len(tallies))
	for symbol, t := range tallies {
		out = append(out, t.summary(symbol))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (t *tally) summary(symbol string) Summary {
	s := Summary{Symbol: symbol, TransactionType: classify.Others}

	shares, value := t.otherShares, t.otherValue
	if t.trades {
		shares = t.buyShares.Sub(t.sellShares)
		value = t.buyValue.Sub(t.sellValue)
		switch value.Sign() {
		case 1:
			s.TransactionType = classify.Buy
		case -1:
			s.TransactionType = classify.Sell
		}
	}

	if !shares.IsZero() {
		s.PricePerShare = value.Div(shares).Abs().Round(3).InexactFloat64()
	}
	s.NetShares = shares.IntPart()
	s.TransactionValue = value.Truncate(0).Abs().IntPart()
	return s
}
