package fetch

import (
	"net/http"
	"testing"
	"time"
)

func TestDelayWithinJitterBounds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, Base: 100 * time.Millisecond, Cap: time.Second}

	for attempt := 1; attempt <= 6; attempt++ {
		max := p.Base << uint(attempt-1)
		if max > p.Cap {
			max = p.Cap
		}
		for i := 0; i < 50; i++ {
			d := p.Delay(attempt)
			if d < 0 || d > max {
				t.Fatalf("attempt %d: delay %v outside [0, %v]", attempt, d, max)
			}
		}
	}
}

func TestDelayCapped(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 20, Base: time.Second, Cap: 2 * time.Second}
	for i := 0; i < 50; i++ {
		if d := p.Delay(15); d > p.Cap {
			t.Fatalf("delay %v exceeds cap %v", d, p.Cap)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	p := DefaultRetryPolicy()
	d, ok := p.RetryAfter("2")
	if !ok || d != 2*time.Second {
		t.Errorf("expected 2s, got %v ok=%v", d, ok)
	}
}

func TestRetryAfterHTTPDate(t *testing.T) {
	p := DefaultRetryPolicy()
	header := time.Now().Add(3 * time.Second).UTC().Format(http.TimeFormat)
	d, ok := p.RetryAfter(header)
	if !ok {
		t.Fatal("expected header to parse")
	}
	if d <= 0 || d > 4*time.Second {
		t.Errorf("unexpected delay %v", d)
	}
}

func TestRetryAfterCappedAndFallback(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, Base: time.Second, Cap: 5 * time.Second}

	if d, ok := p.RetryAfter("3600"); !ok || d != p.Cap {
		t.Errorf("expected cap %v, got %v ok=%v", p.Cap, d, ok)
	}
	if _, ok := p.RetryAfter(""); ok {
		t.Error("empty header should not parse")
	}
	if _, ok := p.RetryAfter("soon"); ok {
		t.Error("garbage header should not parse")
	}
}
