package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the console reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to redraw the progress line.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter renders pipeline events as human-readable console output. It
// implements Sink; wire it into the controller alongside any other sinks.
type Reporter struct {
	opts Options

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool

	totalPages atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	segment    atomic.Int64
	segments   atomic.Int64

	startTime time.Time
}

// NewReporter creates a console reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins periodic progress output.
func (r *Reporter) Start() {
	r.startTime = time.Now()
	go r.updateLoop()
}

// Stop halts periodic output. Safe to call more than once.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

// Publish implements Sink.
func (r *Reporter) Publish(e Event) {
	switch e.Type {
	case EventJobStarted:
		r.totalPages.Store(int64(e.TotalPages))
		r.segments.Store(int64(e.Segments))
		r.segment.Store(1)
		fmt.Fprintf(r.opts.Output, "[ctump] %s: %d pages | %d segments\n",
			e.Output, e.TotalPages, e.Segments)
	case EventPageCompleted:
		r.completed.Store(int64(e.Completed))
		r.failed.Store(int64(e.Failed))
		r.segment.Store(int64(e.Segment))
	case EventPageFailed:
		r.completed.Store(int64(e.Completed))
		r.failed.Store(int64(e.Failed))
		fmt.Fprintf(r.opts.Output, "\n[ctump] page %d failed: %v\n", e.Page, e.Err)
	case EventSegmentCompleted:
		r.completed.Store(int64(e.Completed))
		r.failed.Store(int64(e.Failed))
		r.segment.Store(int64(e.Segment))
	case EventJobFinished:
		r.printFinal(e)
	}
}

func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	total := r.totalPages.Load()
	if total == 0 {
		return
	}
	completed := r.completed.Load()
	failed := r.failed.Load()
	resolved := completed + failed

	percent := float64(resolved) / float64(total) * 100

	elapsed := time.Since(r.startTime).Seconds()
	var eta string
	if resolved > 0 && elapsed > 0 {
		rate := float64(resolved) / elapsed
		remaining := float64(total-resolved) / rate
		eta = formatDuration(time.Duration(remaining * float64(time.Second)))
	} else {
		eta = "calculating..."
	}

	fmt.Fprintf(r.opts.Output, "\r[ctump] Progress: %.1f%% | %d/%d pages | %d failed | segment %d/%d | ETA: %s    ",
		percent, completed, total, failed, r.segment.Load(), r.segments.Load(), eta)
}

func (r *Reporter) printFinal(e Event) {
	duration := time.Since(r.startTime)
	switch {
	case e.State == "cancelled":
		fmt.Fprintf(r.opts.Output, "\n[ctump] Cancelled after %s | %d/%d pages fetched\n",
			formatDuration(duration), e.Completed, e.TotalPages)
	case e.Err != nil:
		fmt.Fprintf(r.opts.Output, "\n[ctump] Failed after %s: %v\n",
			formatDuration(duration), e.Err)
	case e.Failed > 0:
		fmt.Fprintf(r.opts.Output, "\n[ctump] Done with warnings: %s | %d/%d pages, %d missing | %s\n",
			e.Output, e.Completed, e.TotalPages, e.Failed, formatDuration(duration))
	default:
		fmt.Fprintf(r.opts.Output, "\n[ctump] Done: %s | %d pages | %s\n",
			e.Output, e.Completed, formatDuration(duration))
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
