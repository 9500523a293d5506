package filing

import (
	"github.com/supertypeai/sgx-buyback-pipeline/internal/detail"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/tables"
)

// TransactionRecord is one normalized transaction of a filing
type TransactionRecord struct {
	ShareholderName *string  `json:"shareholder_name"`
	TransactionType *string  `json:"transaction_type"`
	TransactionDate *string  `json:"transaction_date"`
	NumberOfStock   *float64 `json:"number_of_stock"`
	Value           *float64 `json:"value"`
	PricePerShare   *float64 `json:"price_per_share"`
	SharesBefore    *float64 `json:"shares_before"`
	SharesBeforePct *float64 `json:"shares_before_percentage"`
	SharesAfter     *float64 `json:"shares_after"`
	SharesAfterPct  *float64 `json:"shares_after_percentage"`

	// TransferParties names both sides of a transfer as "from [->] to"
	TransferParties *string `json:"transfer_parties,omitempty"`
}

// Filing is the extraction result of one announcement
type Filing struct {
	Symbol  string              `json:"symbol"`
	URL     string              `json:"url"`
	Records []TransactionRecord `json:"records"`
}

func newRecord(name, txType *string, d detail.Detail, s tables.Shares) TransactionRecord {
	return TransactionRecord{
		ShareholderName: name,
		TransactionType: txType,
		TransactionDate: d.TransactionDate,
		NumberOfStock:   d.NumberOfStock,
		Value:           d.Value,
		PricePerShare:   d.PricePerShare,
		SharesBefore:    s.Before,
		SharesBeforePct: s.BeforePct,
		SharesAfter:     s.After,
		SharesAfterPct:  s.AfterPct,
	}
}

// sameHolding reports whether two records carry the same before and after
// holdings. Unknown holdings only equal unknown ones.
func sameHolding(a, b TransactionRecord) bool {
	return equalFloat(a.SharesBefore, b.SharesBefore) && equalFloat(a.SharesAfter, b.SharesAfter)
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
