package filing

import (
	"bytes"
	"context"
	"io"
	"log"
	"regexp"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/announcement"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
)

// Fetcher downloads a URL
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// SymbolResolver maps an issuer name to its trading code
type SymbolResolver interface {
	Resolve(name string) (string, bool)
}

// issuerPages are the leading pages searched for the issuer name
const issuerPages = 3

var listedIssuer = regexp.MustCompile(`(?i)Name of Listed Issuer\s*:?[ \t]*\n?[ \t]*([^\n]+)`)

// Processor runs one announcement from its page to its records
type Processor struct {
	fetcher   Fetcher
	symbols   SymbolResolver
	extractor *Extractor
	logger    *log.Logger
}

// NewProcessor creates a processor. symbols may be nil, leaving symbols
// that the announcement does not state empty.
func NewProcessor(fetcher Fetcher, symbols SymbolResolver, extractor *Extractor, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Processor{fetcher: fetcher, symbols: symbols, extractor: extractor, logger: logger}
}

// Process fetches an announcement page and its filing. Excluded filings
// come back as an empty Filing with an error IsExcluded accepts.
func (p *Processor) Process(ctx context.Context, announcementURL string) (*Filing, error) {
	page, err := p.fetcher.Get(ctx, announcementURL)
	if err != nil {
		return nil, &ProcessError{Op: "fetch announcement", URL: announcementURL, Err: err}
	}
	ann, err := announcement.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &ProcessError{Op: "parse announcement", URL: announcementURL, Err: err}
	}

	pdfURL, ok := ann.PDFURL()
	if !ok {
		return &Filing{URL: announcementURL}, &ProcessError{Op: "attachment", URL: announcementURL, Err: ErrNoAttachment}
	}
	symbol := p.announcementSymbol(ann)

	data, err := p.fetcher.Get(ctx, pdfURL)
	if err != nil {
		return nil, &ProcessError{Op: "fetch filing", URL: pdfURL, Err: err}
	}
	return p.ProcessPDF(ctx, data, pdfURL, symbol)
}

// ProcessPDF extracts the records of PDF bytes. An empty symbol is looked
// up from the issuer named in the filing.
func (p *Processor) ProcessPDF(ctx context.Context, data []byte, pdfURL, symbol string) (*Filing, error) {
	doc, err := layout.Open(data, layout.WithLogger(p.logger))
	if err != nil {
		return nil, &ProcessError{Op: "open filing", URL: pdfURL, Err: err}
	}
	defer doc.Close()

	return p.ProcessSource(ctx, doc, pdfURL, symbol)
}

// ProcessSource extracts the records of an opened filing
func (p *Processor) ProcessSource(ctx context.Context, src layout.Source, pdfURL, symbol string) (*Filing, error) {
	if symbol == "" {
		symbol = p.filingSymbol(src)
	}
	f := &Filing{Symbol: symbol, URL: pdfURL}

	records, err := p.extractor.Extract(ctx, src)
	if err != nil {
		return f, &ProcessError{Op: "extract", URL: pdfURL, Err: err}
	}
	f.Records = records
	p.logger.Printf("Extracted %d records from %s (%s)", len(records), pdfURL, symbol)
	return f, nil
}

func (p *Processor) announcementSymbol(ann *announcement.Announcement) string {
	if s, ok := announcement.ExtractSymbol(ann.IssuerSecurity); ok {
		return s
	}
	return p.resolve(ann.IssuerName)
}

// filingSymbol reads "Name of Listed Issuer" from the first pages
func (p *Processor) filingSymbol(src layout.Source) string {
	for i := 0; i < issuerPages; i++ {
		page, ok := layout.Load(src, i)
		if !ok {
			continue
		}
		m := listedIssuer.FindStringSubmatch(page.Text(layout.DefaultTextOptions()))
		if m == nil {
			continue
		}
		if s := p.resolve(m[1]); s != "" {
			return s
		}
	}
	return ""
}

func (p *Processor) resolve(name string) string {
	if p.symbols == nil || name == "" {
		return ""
	}
	s, _ := p.symbols.Resolve(name)
	return s
}
