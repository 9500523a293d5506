package checkbox

import (
	"io"
	"log"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
)

// Search windows of the circumstance and securities blocks, in points
const (
	headerSlack           = 50.0
	acquisitionSpan       = 150.0
	disposalSpan          = 100.0
	otherSpan             = 120.0
	othersSpecifySpan     = 200.0
	securitiesSearchRange = 150.0

	// pages scanned from a section page for its circumstance block
	circumstancePages = 3
	// the fallback scan skips the cover pages of the e-form
	fallbackFirstPage = 2
)

// Reader resolves the checkbox groups of a document
type Reader struct {
	Forms               Forms
	YTolerance          float64
	DescribedYTolerance float64
	logger              *log.Logger
}

// NewReader creates a reader with the default e-form tables
func NewReader(logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Reader{
		Forms:               DefaultForms(),
		YTolerance:          DefaultYTolerance,
		DescribedYTolerance: DefaultDescribedYTolerance,
		logger:              logger,
	}
}

type subsections struct {
	acquisition   *layout.BBox
	disposal      *layout.BBox
	other         *layout.BBox
	othersSpecify *layout.BBox
}

// findSubsections locates the first of each subsection header below start
func findSubsections(blocks []layout.TextBlock, start float64) subsections {
	var s subsections
	for _, b := range blocks {
		if b.BBox.Top < start {
			continue
		}
		box := b.BBox
		switch {
		case s.acquisition == nil && acquisitionHeader.MatchString(b.Text):
			s.acquisition = &box
		case s.disposal == nil && disposalHeader.MatchString(b.Text):
			s.disposal = &box
		case s.other == nil && otherHeader.MatchString(b.Text):
			s.other = &box
		case s.othersSpecify == nil && othersSpecifyHeader.MatchString(b.Text):
			s.othersSpecify = &box
		}
	}
	return s
}

// Circumstance reads the circumstance block belonging to a section that
// starts at top on page. Up to three pages are scanned for its header; the
// acquisition subsection must be present.
func (r *Reader) Circumstance(src layout.Source, page int, top float64) (*Circumstance, bool) {
	last := page + circumstancePages
	if n := src.NumPages(); last > n {
		last = n
	}
	for pi := page; pi < last; pi++ {
		p, ok := layout.Load(src, pi)
		if !ok {
			continue
		}
		accept := anywhere
		if pi == page {
			accept = func(b layout.BBox) bool { return b.Top >= top-headerSlack }
		}
		header, ok := findHeader(p.Blocks(), circumstanceHeader, accept)
		if !ok {
			continue
		}
		r.logger.Printf("circumstance header found on page %d", pi)

		blocks, drawings := Gather(src, pi, circumstancePages)
		subs := findSubsections(blocks, header.Bottom)
		if subs.acquisition == nil {
			continue
		}
		c := r.resolve(blocks, drawings, subs)
		c.Page = pi
		return c, true
	}
	return nil, false
}

// CircumstanceFallback reads the first circumstance block of the document,
// used when no block could be tied to a section
func (r *Reader) CircumstanceFallback(src layout.Source) (*Circumstance, bool) {
	for pi := fallbackFirstPage; pi < src.NumPages(); pi++ {
		p, ok := layout.Load(src, pi)
		if !ok {
			continue
		}
		blocks := p.Blocks()
		header, ok := findHeader(blocks, circumstanceHeader, anywhere)
		if !ok {
			continue
		}
		subs := findSubsections(blocks, header.Bottom)
		if subs.acquisition == nil {
			r.logger.Printf("circumstance header on page %d has no acquisition subsection", pi)
			continue
		}
		c := r.resolve(blocks, p.Drawings, subs)
		c.Page = pi
		return c, true
	}
	return nil, false
}

func (r *Reader) resolve(blocks []layout.TextBlock, drawings []layout.Drawing, s subsections) *Circumstance {
	c := &Circumstance{}

	acqEnd := s.acquisition.Bottom + acquisitionSpan
	if s.disposal != nil {
		acqEnd = s.disposal.Top
	}
	c.Acquisition = findOptions(blocks, drawings, r.Forms.Acquisition, s.acquisition.Bottom, acqEnd, r.YTolerance)

	if s.disposal != nil {
		end := s.disposal.Bottom + disposalSpan
		if s.other != nil {
			end = s.other.Top
		}
		c.Disposal = findOptions(blocks, drawings, r.Forms.Disposal, s.disposal.Bottom, end, r.YTolerance)
	}

	if s.other != nil {
		end := s.other.Bottom + otherSpan
		if s.othersSpecify != nil {
			end = s.othersSpecify.Top
		}
		c.OtherCircumstances = findOptions(blocks, drawings, r.Forms.Other, s.other.Bottom, end, r.YTolerance)
		c.CorporateAction = describe(blocks, drawings, corporateActionLabel, s.other.Bottom, end, r.DescribedYTolerance)
	}

	if s.othersSpecify != nil {
		start := s.othersSpecify.Top
		c.OthersSpecify = describe(blocks, drawings, othersSpecifyLabel, start, start+othersSpecifySpan, r.DescribedYTolerance)
	}
	return c
}

// TypeOfSecurities reads the "Type of securities which are the subject of
// the transaction" block. The first page yielding any option wins.
func (r *Reader) TypeOfSecurities(src layout.Source) (*SecurityTypes, bool) {
	for pi := 0; pi < src.NumPages(); pi++ {
		p, ok := layout.Load(src, pi)
		if !ok {
			continue
		}
		blocks := p.Blocks()
		header, ok := findHeader(blocks, securitiesHeader, anywhere)
		if !ok {
			continue
		}

		// the band end is inclusive for this block
		end := header.Bottom + securitiesSearchRange + 1e-9
		opts := findOptions(blocks, p.Drawings, r.Forms.TypeOfSecurities, header.Bottom, end, r.YTolerance)
		if opts.Located() {
			return &SecurityTypes{Options: opts, Page: pi}, true
		}
	}
	return nil, false
}
