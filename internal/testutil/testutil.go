// Package testutil provides shared test infrastructure: deterministic page
// images and a fake DocImage endpoint.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// PagePNG renders a small deterministic PNG for the given page number. The
// same page number always produces the same bytes.
func PagePNG(t *testing.T, page int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((page * 37) % 256),
				G: uint8((x * 31) % 256),
				B: uint8((y * 29) % 256),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode page png: %v", err)
	}
	return buf.Bytes()
}

// PageServer is a fake DocImage endpoint serving generated PNG pages, with
// per-page failure scripting.
type PageServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[int]int
	fail     map[int]func(attempt int) int // page -> status for that attempt, 0 = serve
}

// StartPageServer starts a server that answers any page request with a
// deterministic PNG. Use FailPage / FailPageTimes to script failures.
func StartPageServer(t *testing.T) *PageServer {
	t.Helper()

	ps := &PageServer{
		requests: make(map[int]int),
		fail:     make(map[int]func(int) int),
	}

	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ps.mu.Lock()
		ps.requests[page]++
		attempt := ps.requests[page]
		script := ps.fail[page]
		ps.mu.Unlock()

		if script != nil {
			if status := script(attempt); status != 0 {
				w.WriteHeader(status)
				return
			}
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(PagePNG(t, page))
	}))

	t.Cleanup(ps.Server.Close)
	return ps
}

// FailPage makes every request for page answer with status.
func (ps *PageServer) FailPage(page, status int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.fail[page] = func(int) int { return status }
}

// FailPageTimes makes the first n requests for page answer with status and
// later ones succeed.
func (ps *PageServer) FailPageTimes(page, status, n int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.fail[page] = func(attempt int) int {
		if attempt <= n {
			return status
		}
		return 0
	}
}

// Requests returns how many requests were made for page.
func (ps *PageServer) Requests(page int) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.requests[page]
}
