// Package filing assembles the transaction records of a disclosure filing
// from its sections, tables, free-text answers and checkboxes.
package filing

import (
	"context"
	"io"
	"log"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/checkbox"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/classify"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/detail"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/fx"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/sections"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/tables"
)

// documentTextStart skips the cover pages of the e-form
const documentTextStart = 2

// Extractor turns an opened filing into transaction records
type Extractor struct {
	policy     Policy
	deriver    *detail.Deriver
	classifier *classify.Classifier
	checkboxes *checkbox.Reader
	logger     *log.Logger
}

// NewExtractor creates an extractor. provider converts foreign-currency
// amounts and may be nil, in which case such amounts stay unknown.
func NewExtractor(policy Policy, provider fx.Provider, logger *log.Logger) (*Extractor, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	forms, err := policy.forms()
	if err != nil {
		return nil, err
	}

	reader := checkbox.NewReader(logger)
	reader.Forms = forms
	reader.YTolerance = policy.Checkbox.YTolerance
	reader.DescribedYTolerance = policy.Checkbox.DescribedYTolerance

	return &Extractor{
		policy:     policy,
		deriver:    detail.NewDeriver(provider, policy.Detail, logger),
		classifier: classify.New(policy.Rules, logger),
		checkboxes: reader,
		logger:     logger,
	}, nil
}

// Extract returns the accepted records of a filing. Filings that are not
// about voting shares, or that have no disclosure sections, are reported
// with ErrNotVotingShares and ErrNoSections.
func (e *Extractor) Extract(ctx context.Context, src layout.Source) ([]TransactionRecord, error) {
	types, ok := e.checkboxes.TypeOfSecurities(src)
	if !ok || !types.Voting() {
		return nil, ErrNotVotingShares
	}

	secs, shape := sections.LocateWith(src, e.policy.Anchors)
	if len(secs) == 0 {
		return nil, ErrNoSections
	}
	e.logger.Printf("Located %d sections (%s)", len(secs), shape)

	var records []TransactionRecord
	special := false
	for _, sec := range secs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, isSpecial := e.section(ctx, src, sec)
		special = special || isSpecial
		records = append(records, out...)
	}

	if !special {
		records = e.validate(records)
	}
	if len(records) == 0 {
		return nil, nil
	}

	e.documentFallback(ctx, src, records)
	return records, nil
}

// section builds the records of one disclosure section
func (e *Extractor) section(ctx context.Context, src layout.Source, sec sections.Section) ([]TransactionRecord, bool) {
	table, ok := tables.Extract(src, sec)
	if !ok {
		e.logger.Printf("No shareholding table for section on page %d", sec.PageNumber)
		return nil, false
	}
	shares := tables.ShareValues(table)
	if shares.Empty() {
		e.logger.Printf("No holdings in table for section on page %d", sec.PageNumber)
		return nil, false
	}

	name := ShareholderName(src, sec)
	details, special := e.deriver.Extract(ctx, src, sec)
	if len(details) == 0 {
		details = []detail.Detail{{}}
	}

	circ, _ := e.checkboxes.Circumstance(src, sec.PageNumber, sec.BBox.Top)
	txType := e.classifier.TransactionType(circ, details[0].Value)
	parties := transferParties(circ, txType, name)

	out := make([]TransactionRecord, 0, len(details))
	for _, d := range details {
		rec := newRecord(name, txType, d, shares)
		rec.TransferParties = parties
		out = append(out, rec)
	}
	return out, special
}

func transferParties(c *checkbox.Circumstance, txType, name *string) *string {
	if c == nil || txType == nil || *txType != classify.Transfer {
		return nil
	}
	shareholder := ""
	if name != nil {
		shareholder = *name
	}
	parties, ok := classify.TransferName(c.OthersSpecify.Description, shareholder)
	if !ok {
		return nil
	}
	return &parties
}

// validate drops records that show no change in holdings, and whole
// documents whose sections all repeat one holding
func (e *Extractor) validate(records []TransactionRecord) []TransactionRecord {
	switch {
	case len(records) == 1:
		r := records[0]
		if r.SharesBefore != nil && r.SharesAfter != nil && *r.SharesBefore == *r.SharesAfter {
			e.logger.Printf("Dropping record with unchanged holding %.0f", *r.SharesBefore)
			return nil
		}
	case len(records) > 1:
		for _, r := range records[1:] {
			if !sameHolding(records[0], r) {
				return records
			}
		}
		e.logger.Printf("Dropping %d records sharing one holding", len(records))
		return nil
	}
	return records
}

// documentFallback fills fields no section provided from the document as a
// whole: the shared circumstance block and the answers of the full text
func (e *Extractor) documentFallback(ctx context.Context, src layout.Source, records []TransactionRecord) {
	needType, needDetail := false, false
	for _, r := range records {
		needType = needType || r.TransactionType == nil
		needDetail = needDetail || r.NumberOfStock == nil || r.Value == nil
	}
	if !needType && !needDetail {
		return
	}

	det := e.deriver.FromText(ctx, layout.DocumentText(src, documentTextStart))

	var txType *string
	if needType {
		if circ, ok := e.checkboxes.CircumstanceFallback(src); ok {
			txType = e.classifier.TransactionType(circ, det.Value)
		}
	}

	for i := range records {
		r := &records[i]
		if r.TransactionType == nil {
			r.TransactionType = txType
		}
		if r.NumberOfStock != nil && r.Value != nil {
			continue
		}
		if r.TransactionDate == nil {
			r.TransactionDate = det.TransactionDate
		}
		if r.NumberOfStock == nil {
			r.NumberOfStock = det.NumberOfStock
		}
		if r.Value == nil {
			r.Value = det.Value
		}
		if r.PricePerShare == nil {
			r.PricePerShare = det.PricePerShare
		}
	}
}
