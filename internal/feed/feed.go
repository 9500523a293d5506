// Package feed lists filing announcements from the SGX announcements API.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultBaseURL  = "https://api.sgx.com/announcements/v1.1/"
	DefaultPageSize = 20
	DefaultMaxPages = 100

	category    = "ANNC"
	subCategory = "ANNC14"
	dateLayout  = "20060102"
)

// Getter fetches a URL with extra request headers
type Getter interface {
	GetWithHeader(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// Entry is one announcement of the feed
type Entry struct {
	URL            string `json:"url"`
	IssuerName     string `json:"issuer_name"`
	Title          string `json:"title"`
	SubmissionDate string `json:"submission_date"`
}

type page struct {
	Data *[]Entry `json:"data"`
}

// Lister pages through the announcements of a period
type Lister struct {
	getter   Getter
	baseURL  string
	token    string
	pageSize int
	maxPages int
	logger   *log.Logger
}

// Option configures a Lister
type Option func(*Lister)

// WithBaseURL overrides the API endpoint
func WithBaseURL(u string) Option {
	return func(l *Lister) {
		if u != "" {
			l.baseURL = u
		}
	}
}

// WithToken sets the authorizationtoken header value
func WithToken(token string) Option {
	return func(l *Lister) { l.token = token }
}

// WithPageSize sets the entries requested per page
func WithPageSize(n int) Option {
	return func(l *Lister) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

// WithMaxPages bounds the pages read per period
func WithMaxPages(n int) Option {
	return func(l *Lister) {
		if n > 0 {
			l.maxPages = n
		}
	}
}

// WithLogger sets the lister logger
func WithLogger(logger *log.Logger) Option {
	return func(l *Lister) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a lister reading through getter
func New(getter Getter, opts ...Option) *Lister {
	l := &Lister{
		getter:   getter,
		baseURL:  DefaultBaseURL,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ParseDate reads a YYYYMMDD period bound
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period date %q, expected YYYYMMDD: %w", s, err)
	}
	return t, nil
}

// PageURL builds the request for one page. A period runs from 16:00 on the
// start date to 15:59:59 on the end date.
func (l *Lister) PageURL(start, end time.Time, pageStart int) string {
	q := url.Values{}
	q.Set("periodstart", start.Format(dateLayout)+"_160000")
	q.Set("periodend", end.Format(dateLayout)+"_155959")
	q.Set("cat", category)
	q.Set("sub", subCategory)
	q.Set("pagestart", strconv.Itoa(pageStart))
	q.Set("pagesize", strconv.Itoa(l.pageSize))
	return l.baseURL + "?" + q.Encode()
}

// List returns the announcements of the period in feed order. Entries
// without a URL are skipped. A failing page ends the listing with the
// entries read so far and the error.
func (l *Lister) List(ctx context.Context, start, end time.Time) ([]Entry, error) {
	header := http.Header{}
	header.Set("Accept", "*/*")
	header.Set("Origin", "https://www.sgx.com")
	header.Set("Referer", "https://www.sgx.com/")
	if l.token != "" {
		header.Set("authorizationtoken", l.token)
	}

	var entries []Entry
	for n := 0; n < l.maxPages; n++ {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		body, err := l.getter.GetWithHeader(ctx, l.PageURL(start, end, n), header)
		if err != nil {
			return entries, fmt.Errorf("feed page %d: %w", n, err)
		}

		var p page
		if err := json.Unmarshal(body, &p); err != nil {
			return entries, fmt.Errorf("feed page %d: decode: %w", n, err)
		}
		if p.Data == nil || len(*p.Data) == 0 {
			l.logger.Printf("No more announcements after page %d", n)
			break
		}

		for _, e := range *p.Data {
			if e.URL == "" {
				l.logger.Printf("Skipping announcement without url for %s", e.IssuerName)
				continue
			}
			entries = append(entries, e)
		}
		l.logger.Printf("Page %d: %d announcements", n, len(*p.Data))
	}
	return entries, nil
}
