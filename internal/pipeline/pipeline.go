// Package pipeline runs a batch of announcements through extraction,
// review and storage.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/feed"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/filing"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/review"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/store"
)

// DefaultSeenWindow is how far back processed announcements are skipped
const DefaultSeenWindow = 24 * time.Hour

// Processor turns an announcement URL into its filing
type Processor interface {
	Process(ctx context.Context, url string) (*filing.Filing, error)
}

// Lister lists the announcements of a period
type Lister interface {
	List(ctx context.Context, start, end time.Time) ([]feed.Entry, error)
}

// Store persists reviewed records and remembers processed announcements
type Store interface {
	Save(ctx context.Context, runID string, items []review.Item) (int, error)
	MarkProcessed(ctx context.Context, runID, url, status string) error
	SeenURLs(ctx context.Context, since time.Time) (map[string]bool, error)
}

// Result is the outcome of one batch
type Result struct {
	RunID      string           `json:"run_id"`
	Processed  int              `json:"processed"`
	Excluded   int              `json:"excluded"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	Saved      int              `json:"saved"`
	Insertable []review.Item    `json:"insertable"`
	Flagged    []review.Flagged `json:"flagged"`
	Summaries  []review.Summary `json:"summaries"`
}

// Runner processes announcements one at a time
type Runner struct {
	processor  Processor
	store      Store
	logger     *log.Logger
	now        func() time.Time
	seenWindow time.Duration
}

// Option configures a Runner
type Option func(*Runner)

// WithStore enables persistence and skipping of seen announcements
func WithStore(s Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithLogger sets the runner logger
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSeenWindow sets how far back processed announcements are skipped
func WithSeenWindow(d time.Duration) Option {
	return func(r *Runner) { r.seenWindow = d }
}

// New creates a runner
func New(processor Processor, opts ...Option) *Runner {
	r := &Runner{
		processor:  processor,
		logger:     log.New(io.Discard, "", 0),
		now:        time.Now,
		seenWindow: DefaultSeenWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunPeriod lists the announcements of a period and runs them
func (r *Runner) RunPeriod(ctx context.Context, lister Lister, start, end time.Time) (*Result, error) {
	entries, err := lister.List(ctx, start, end)
	if err != nil && len(entries) == 0 {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	if err != nil {
		r.logger.Printf("Listing stopped early, continuing with %d announcements: %v", len(entries), err)
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		urls = append(urls, e.URL)
	}
	return r.Run(ctx, urls)
}

// Run processes urls in order. A failing announcement is logged and the
// batch continues. Records are cleaned and reviewed, and with a store the
// insertable ones are saved.
func (r *Runner) Run(ctx context.Context, urls []string) (*Result, error) {
	res := &Result{RunID: uuid.New().String()}
	r.logger.Printf("Run %s: %d announcements", res.RunID, len(urls))

	seen, err := r.seen(ctx)
	if err != nil {
		return nil, err
	}

	var filings []*filing.Filing
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if seen[url] {
			res.Skipped++
			continue
		}
		seen[url] = true

		f, err := r.processor.Process(ctx, url)
		status := store.StatusExtracted
		switch {
		case err != nil && filing.IsExcluded(err):
			r.logger.Printf("Excluded %s: %v", url, err)
			res.Excluded++
			status = store.StatusExcluded
		case err != nil:
			r.logger.Printf("Failed %s: %v", url, err)
			res.Failed++
			status = store.StatusFailed
		default:
			res.Processed++
			filings = append(filings, f)
		}
		r.mark(ctx, res.RunID, url, status)
	}

	items := review.Clean(review.Items(filings...))
	res.Insertable, res.Flagged = review.Filter(items)
	res.Summaries = review.Summarize(res.Insertable)
	r.logger.Printf("Run %s: %d records insertable, %d flagged", res.RunID, len(res.Insertable), len(res.Flagged))

	if r.store != nil {
		n, err := r.store.Save(ctx, res.RunID, res.Insertable)
		if err != nil {
			return res, fmt.Errorf("saving records: %w", err)
		}
		res.Saved = n
	}
	return res, nil
}

func (r *Runner) seen(ctx context.Context) (map[string]bool, error) {
	if r.store == nil {
		return make(map[string]bool), nil
	}
	seen, err := r.store.SeenURLs(ctx, r.now().Add(-r.seenWindow))
	if err != nil {
		return nil, fmt.Errorf("loading processed announcements: %w", err)
	}
	return seen, nil
}

func (r *Runner) mark(ctx context.Context, runID, url, status string) {
	if r.store == nil {
		return
	}
	if err := r.store.MarkProcessed(ctx, runID, url, status); err != nil {
		r.logger.Printf("Warning: %v", err)
	}
}

// WriteJSON writes v as indented JSON to path
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
