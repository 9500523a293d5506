// Package fetch downloads announcement pages, attachments and feed pages
// with pacing and retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

// DefaultMaxSize bounds a single response body
const DefaultMaxSize = 50 * 1024 * 1024

// DefaultUserAgent is sent with every request
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// ErrTooLarge is returned when a body exceeds the configured limit
var ErrTooLarge = errors.New("response body too large")

// Error describes a failed download. StatusCode is zero when no response
// was received.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the request may succeed
func (e *Error) Temporary() bool {
	if errors.Is(e.Err, ErrTooLarge) {
		return false
	}
	switch e.StatusCode {
	case 0, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client is a paced HTTP getter
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	attempts  uint
	delay     time.Duration
	maxSize   int64
	userAgent string
	logger    *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetry sets the number of attempts and the base delay between them
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithRateLimit allows rps requests per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxSize bounds response bodies
func WithMaxSize(n int64) Option {
	return func(c *Client) { c.maxSize = n }
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client allowing one request per second with three attempts
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		attempts:  3,
		delay:     time.Second,
		maxSize:   DefaultMaxSize,
		userAgent: DefaultUserAgent,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads url
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.GetWithHeader(ctx, url, nil)
}

// GetWithHeader downloads url sending the extra header
func (c *Client) GetWithHeader(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			b, err := c.get(ctx, url, header)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var fe *Error
			return errors.As(err, &fe) && fe.Temporary()
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Printf("Retrying %s (attempt %d): %v", url, n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(&Error{URL: url, Err: err})
	}
	req.Header.Set("User-Agent", c.userAgent)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(data)) > c.maxSize {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Err: ErrTooLarge}
	}
	c.logger.Printf("Fetched %s (%d bytes)", url, len(data))
	return data, nil
}
