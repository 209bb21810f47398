package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the DocImage endpoint the original tool targets.
const DefaultBaseURL = "https://media.ctump.edu.vn/DocImage.axd"

// defaultUserAgent identifies the scraper to the endpoint.
const defaultUserAgent = "ctump-pdf/1.0 (+net/http)"

// Options configures the page fetch client.
type Options struct {
	// BaseURL is the DocImage endpoint. Existing query parameters are
	// preserved; page/token/zoom/format are merged in per request.
	BaseURL string

	// UserAgent sent with every request.
	UserAgent string

	// ConnectTimeout bounds TCP connect + TLS handshake.
	// Default: 5s
	ConnectTimeout time.Duration

	// ReadTimeout bounds reading the response after connecting.
	// Default: 30s
	ReadTimeout time.Duration

	// MaxConnsPerHost sets the connection pool size.
	// Default: 16
	MaxConnsPerHost int

	// Retry is the retry/backoff policy for retryable failures.
	Retry RetryPolicy
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		BaseURL:         DefaultBaseURL,
		UserAgent:       defaultUserAgent,
		ConnectTimeout:  5 * time.Second,
		ReadTimeout:     30 * time.Second,
		MaxConnsPerHost: 16,
		Retry:           DefaultRetryPolicy(),
	}
}

// Page is one successfully fetched page image.
type Page struct {
	Page        int
	Body        []byte
	ContentType string
	Attempts    int
}

// Client fetches single page images from the endpoint. Safe for concurrent
// use; each FetchPage call is independent.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a page fetch client with the given options. Zero-valued
// fields fall back to DefaultOptions.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}
	if opts.MaxConnsPerHost <= 0 {
		opts.MaxConnsPerHost = def.MaxConnsPerHost
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = def.Retry
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: opts.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConnsPerHost:   opts.MaxConnsPerHost,
		MaxIdleConns:          opts.MaxConnsPerHost * 2,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// PageURL builds the request URL for one page, merging the page number,
// token and fixed rendering parameters into the base endpoint.
func (c *Client) PageURL(token string, page int) (string, error) {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("token", token)
	q.Set("zoom", "100")
	q.Set("format", "png")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage retrieves one page's image bytes. Retryable failures (timeouts,
// connection errors, 429 and 5xx responses) are retried per the policy;
// anything else is surfaced immediately. On failure the returned error is
// always a *Error carrying the kind and attempt count.
func (c *Client) FetchPage(ctx context.Context, token string, page int) (*Page, error) {
	if token == "" {
		return nil, &Error{Kind: KindInvalidResponse, Page: page, Err: fmt.Errorf("empty token")}
	}
	if page < 1 {
		return nil, &Error{Kind: KindInvalidResponse, Page: page, Err: fmt.Errorf("page number must be >= 1")}
	}

	pageURL, err := c.PageURL(token, page)
	if err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Page: page, Err: err}
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.opts.Retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay, ok := c.opts.Retry.RetryAfter(retryAfterHeader(lastErr))
			if !ok {
				delay = c.opts.Retry.Delay(attempt - 1)
			}
			if err := sleep(ctx, delay); err != nil {
				lastErr.Attempts = attempt - 1
				return nil, lastErr
			}
		}

		result, ferr := c.fetchOnce(ctx, pageURL, page)
		if ferr == nil {
			result.Attempts = attempt
			return result, nil
		}

		ferr.Attempts = attempt
		if !ferr.Retryable() {
			return nil, ferr
		}
		lastErr = ferr

		if ctx.Err() != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// fetchOnce performs a single attempt. The returned *Error has Kind and
// StatusCode set; the caller fills in Attempts.
func (c *Client) fetchOnce(ctx context.Context, pageURL string, page int) (*Page, *Error) {
	// One deadline covers connect plus body read for the attempt.
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout+c.opts.ReadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Page: page, Err: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(err), Page: page, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ferr := &Error{Kind: KindHTTPStatus, StatusCode: resp.StatusCode, Page: page}
		ferr.Err = fmt.Errorf("unexpected status %s", resp.Status)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			ferr.Err = fmt.Errorf("unexpected status %s (retry-after %s)", resp.Status, ra)
			ferr.retryAfter = ra
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, ferr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(err), Page: page, Err: err}
	}
	if len(body) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Page: page, Err: fmt.Errorf("empty body")}
	}

	return &Page{
		Page:        page,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func retryAfterHeader(e *Error) string {
	if e == nil {
		return ""
	}
	return e.retryAfter
}
