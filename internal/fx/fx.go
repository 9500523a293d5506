// Package fx converts foreign-currency amounts stated in filings to SGD.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/patrickmn/go-cache"
)

// Currencies the filings state amounts in besides SGD
const (
	USD = "USD"
	HKD = "HKD"
	SGD = "SGD"
)

// DefaultBaseURL is the public frankfurter endpoint
const DefaultBaseURL = "https://api.frankfurter.app"

// DefaultTTL keeps a rate for the rest of a batch run
const DefaultTTL = 12 * time.Hour

// ErrUnknownCurrency is returned for a currency the provider does not quote
var ErrUnknownCurrency = errors.New("unknown currency")

// Provider quotes the SGD value of one unit of a currency
type Provider interface {
	ToSGD(ctx context.Context, currency string) (float64, error)
}

// RateError describes a failed rate lookup
type RateError struct {
	Currency string
	Err      error
}

func (e *RateError) Error() string {
	return fmt.Sprintf("fx rate %s->SGD: %v", e.Currency, e.Err)
}

func (e *RateError) Unwrap() error {
	return e.Err
}

// Static is a fixed rate table
type Static map[string]float64

// ToSGD returns the table rate. SGD always converts at 1.
func (s Static) ToSGD(_ context.Context, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	if currency == SGD {
		return 1, nil
	}
	rate, ok := s[currency]
	if !ok {
		return 0, &RateError{Currency: currency, Err: ErrUnknownCurrency}
	}
	return rate, nil
}

// Client reads the latest rates from a frankfurter compatible API and keeps
// them in memory for TTL
type Client struct {
	baseURL  string
	http     *http.Client
	rates    *cache.Cache
	attempts uint
	delay    time.Duration
	logger   *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the number of attempts and the base delay between them
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a rate client. An empty baseURL selects DefaultBaseURL
// and a zero ttl DefaultTTL.
func NewClient(baseURL string, ttl time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		rates:    cache.New(ttl, 2*ttl),
		attempts: 3,
		delay:    800 * time.Millisecond,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// ToSGD returns how many SGD one unit of currency buys
func (c *Client) ToSGD(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	if currency == SGD {
		return 1, nil
	}
	if cached, ok := c.rates.Get(currency); ok {
		return cached.(float64), nil
	}

	var rate float64
	err := retry.Do(
		func() error {
			r, err := c.fetch(ctx, currency)
			if err != nil {
				return err
			}
			rate = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.retryable()
			}
			return !errors.Is(err, ErrUnknownCurrency)
		}),
	)
	if err != nil {
		return 0, &RateError{Currency: currency, Err: err}
	}

	c.logger.Printf("%s->SGD rate %.6f", currency, rate)
	c.rates.SetDefault(currency, rate)
	return rate, nil
}

func (c *Client) fetch(ctx context.Context, currency string) (float64, error) {
	q := url.Values{}
	q.Set("from", currency)
	q.Set("to", SGD)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return 0, retry.Unrecoverable(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{code: resp.StatusCode}
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, retry.Unrecoverable(fmt.Errorf("decode rates: %w", err))
	}
	rate, ok := body.Rates[SGD]
	if !ok || rate <= 0 {
		return 0, retry.Unrecoverable(ErrUnknownCurrency)
	}
	return rate, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (e *statusError) retryable() bool {
	switch e.code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
