package fetch

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy describes how many attempts a page fetch gets and how long to
// wait between them. The zero value is not usable; start from DefaultRetryPolicy.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 6
	MaxAttempts int

	// Base is the backoff unit for the first retry.
	// Default: 500ms
	Base time.Duration

	// Cap bounds any single backoff delay.
	// Default: 30s
	Cap time.Duration
}

// DefaultRetryPolicy returns the documented retry defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 6,
		Base:        500 * time.Millisecond,
		Cap:         30 * time.Second,
	}
}

// Delay returns the wait before the next attempt. attempt is 1-based (the
// attempt that just failed). Uses full jitter: uniform over
// [0, Base * 2^(attempt-1)], capped.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	max := p.Base << uint(attempt-1)
	if max > p.Cap || max <= 0 {
		max = p.Cap
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}

// RetryAfter parses a Retry-After header value as either a number of
// seconds or an HTTP date. Returns 0, false if the header is absent or
// unparseable, leaving the caller to fall back to Delay.
func (p RetryPolicy) RetryAfter(header string) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(header, 64); err == nil && secs >= 0 {
		d := time.Duration(secs * float64(time.Second))
		if d > p.Cap {
			d = p.Cap
		}
		return d, true
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		if d > p.Cap {
			d = p.Cap
		}
		return d, true
	}
	return 0, false
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
