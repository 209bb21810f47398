package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/VitStudio/ctump-pdf/internal/pdf"
	"github.com/VitStudio/ctump-pdf/internal/progress"
	"github.com/VitStudio/ctump-pdf/internal/publish"
	"github.com/VitStudio/ctump-pdf/internal/scratch"
	"github.com/VitStudio/ctump-pdf/internal/segment"
)

// Options configures a Controller beyond the job itself.
type Options struct {
	// Sink receives progress events. Default: progress.Nop().
	Sink progress.Sink

	// Logger for structured job logs. Default: slog.Default().
	Logger *slog.Logger

	// ScratchDir is the parent for the per-job scratch directory.
	// Default: the system temp dir.
	ScratchDir string

	// PublishURL, when set, is a bucket URL the final PDF is copied to
	// after a successful assemble.
	PublishURL string
}

// Controller runs one job from pending to a terminal state. It owns the job
// exclusively for its lifetime; Run may be called once.
type Controller struct {
	job     Job
	fetcher segment.Fetcher
	codec   *pdf.Codec
	opts    Options

	cancelled atomic.Bool

	mu          sync.Mutex
	snap        Snapshot
	failedPages []int

	// emitMu serializes page-event emission so published counts never
	// regress, without holding mu across sink calls.
	emitMu sync.Mutex
}

// NewController creates a controller for the given job.
func NewController(j Job, fetcher segment.Fetcher, codec *pdf.Codec, opts Options) *Controller {
	if opts.Sink == nil {
		opts.Sink = progress.Nop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		job:     j,
		fetcher: fetcher,
		codec:   codec,
		opts:    opts,
		snap:    Snapshot{State: StatePending},
	}
}

// Cancel requests cooperative cancellation: in-flight page fetches finish,
// no further pages or segments start. Safe to call from any goroutine, any
// number of times.
func (c *Controller) Cancel() {
	if c.cancelled.CompareAndSwap(false, true) {
		c.mu.Lock()
		c.snap.Cancelled = true
		c.mu.Unlock()
		c.opts.Logger.Info("cancellation requested", "job", c.job.ID)
	}
}

// Progress returns a point-in-time snapshot. Safe to call concurrently with
// Run.
func (c *Controller) Progress() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Run executes the job to a terminal state. The returned report is always
// non-nil; its Err field (also returned) is set only when the job failed.
// Cancellation yields a cancelled report and a nil error.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	log := c.opts.Logger.With("job", c.job.ID, "output", c.job.OutputPath)

	if err := c.job.validate(); err != nil {
		return c.finish(StateFailed, err, log)
	}

	plan, err := segment.Plan(c.job.StartPage, c.job.EndPage, c.job.SegmentSize)
	if err != nil {
		return c.finish(StateFailed, err, log)
	}

	dir, err := scratch.New(c.opts.ScratchDir, c.job.ID)
	if err != nil {
		return c.finish(StateFailed, err, log)
	}
	// Temporary artifacts never outlive the terminal state, on any path.
	defer func() {
		if rmErr := dir.Remove(); rmErr != nil {
			log.Warn("scratch cleanup failed", "error", rmErr)
		}
	}()

	c.mu.Lock()
	c.snap.State = StateRunning
	c.snap.TotalPages = c.job.TotalPages()
	c.snap.Segments = len(plan)
	c.mu.Unlock()

	if _, err := os.Stat(c.job.OutputPath); err == nil {
		log.Warn("overwriting existing output file")
	}

	log.Info("job started",
		"pages", c.job.TotalPages(),
		"segments", len(plan),
		"concurrency", c.job.Concurrency)
	c.opts.Sink.Publish(progress.Event{
		Type:       progress.EventJobStarted,
		JobID:      c.job.ID,
		Output:     c.job.OutputPath,
		Segments:   len(plan),
		TotalPages: c.job.TotalPages(),
	})

	var artifacts []string
	for _, seg := range plan {
		if c.cancelled.Load() || ctx.Err() != nil {
			return c.finish(StateCancelled, nil, log)
		}

		c.mu.Lock()
		c.snap.Segment = seg.Index
		c.mu.Unlock()

		builder := segment.NewBuilder(c.fetcher, c.codec, segment.Options{
			Concurrency: c.job.Concurrency,
			Cancelled:   c.cancelled.Load,
			OnPage:      c.pageCallback(seg.Index, len(plan)),
		})

		log.Info("segment started", "segment", seg.Index, "start", seg.Start, "end", seg.End)
		artifact, err := builder.Build(ctx, c.job.Token, seg, dir)
		if err != nil {
			return c.finish(StateFailed, err, log)
		}

		if c.cancelled.Load() || ctx.Err() != nil {
			return c.finish(StateCancelled, nil, log)
		}

		if artifact.Empty() {
			log.Warn("segment produced no pages", "segment", seg.Index)
		} else {
			artifacts = append(artifacts, artifact.Path)
		}

		snap := c.Progress()
		c.opts.Sink.Publish(progress.Event{
			Type:       progress.EventSegmentCompleted,
			JobID:      c.job.ID,
			Output:     c.job.OutputPath,
			Segment:    seg.Index,
			Segments:   len(plan),
			TotalPages: snap.TotalPages,
			Completed:  snap.Completed,
			Failed:     snap.Failed,
		})
		log.Info("segment completed",
			"segment", seg.Index,
			"ok", len(artifact.Pages),
			"failed", len(artifact.Failed))
	}

	if len(artifacts) == 0 {
		err := &pdf.AssemblyError{Op: "assemble", Err: fmt.Errorf("no pages succeeded")}
		return c.finish(StateFailed, err, log)
	}

	log.Info("merging segments", "count", len(artifacts))
	assembler := pdf.NewAssembler(c.codec)
	if err := assembler.Assemble(artifacts, c.job.OutputPath); err != nil {
		return c.finish(StateFailed, err, log)
	}

	c.verifyOutput(log)

	if c.opts.PublishURL != "" {
		key := filepath.Base(c.job.OutputPath)
		if err := publish.Upload(ctx, c.opts.PublishURL, key, c.job.OutputPath); err != nil {
			log.Warn("publish failed", "bucket", c.opts.PublishURL, "error", err)
		} else {
			log.Info("published", "bucket", c.opts.PublishURL, "key", key)
		}
	}

	return c.finish(StateCompleted, nil, log)
}

// pageCallback returns the per-page hook for one segment. It is the single
// serialized mutation path for the progress aggregate; publishing under the
// same lock keeps observed counts monotonic.
func (c *Controller) pageCallback(segIndex, segments int) func(segment.PageResult) {
	return func(res segment.PageResult) {
		c.emitMu.Lock()
		defer c.emitMu.Unlock()

		c.mu.Lock()
		if res.OK {
			c.snap.Completed++
		} else {
			c.snap.Failed++
			c.failedPages = append(c.failedPages, res.Page)
		}
		snap := c.snap
		c.mu.Unlock()

		evt := progress.Event{
			JobID:      c.job.ID,
			Output:     c.job.OutputPath,
			Page:       res.Page,
			Segment:    segIndex,
			Segments:   segments,
			TotalPages: snap.TotalPages,
			Completed:  snap.Completed,
			Failed:     snap.Failed,
		}
		if res.OK {
			evt.Type = progress.EventPageCompleted
		} else {
			evt.Type = progress.EventPageFailed
			evt.Err = res.Err
			c.opts.Logger.Warn("page failed",
				"job", c.job.ID,
				"page", res.Page,
				"attempts", res.Attempts,
				"error", res.Err)
		}
		c.opts.Sink.Publish(evt)
	}
}

// verifyOutput compares the merged document's page count against what the
// aggregate says survived. A mismatch is logged, not fatal.
func (c *Controller) verifyOutput(log *slog.Logger) {
	snap := c.Progress()
	expected := snap.TotalPages - snap.Failed
	got, err := c.codec.PageCount(c.job.OutputPath)
	if err != nil {
		log.Warn("output verification failed", "error", err)
		return
	}
	if got != expected {
		log.Warn("output page count mismatch", "expected", expected, "got", got)
	}
}

// finish performs the terminal transition: fixes the state, emits the final
// event, and builds the report. Partial-output cleanup on a failed assembly
// is the assembler's job, not finish's; finish never touches the output path.
func (c *Controller) finish(state State, err error, log *slog.Logger) (*Report, error) {
	c.mu.Lock()
	c.snap.State = state
	snap := c.snap
	failedPages := append([]int(nil), c.failedPages...)
	c.mu.Unlock()

	sort.Ints(failedPages)

	report := &Report{
		JobID:       c.job.ID,
		State:       state,
		TotalPages:  snap.TotalPages,
		Completed:   snap.Completed,
		Failed:      snap.Failed,
		FailedPages: failedPages,
		Err:         err,
	}
	if state == StateCompleted {
		report.OutputPath = c.job.OutputPath
	}

	c.opts.Sink.Publish(progress.Event{
		Type:       progress.EventJobFinished,
		JobID:      c.job.ID,
		Output:     c.job.OutputPath,
		Segment:    snap.Segment,
		Segments:   snap.Segments,
		TotalPages: snap.TotalPages,
		Completed:  snap.Completed,
		Failed:     snap.Failed,
		State:      string(state),
		Err:        err,
	})

	switch state {
	case StateCompleted:
		if report.CompletedWithWarnings() {
			log.Warn("job completed with missing pages",
				"completed", snap.Completed, "failed", snap.Failed, "failed_pages", failedPages)
		} else {
			log.Info("job completed", "pages", snap.Completed)
		}
	case StateCancelled:
		log.Info("job cancelled", "completed", snap.Completed, "failed", snap.Failed)
	case StateFailed:
		log.Error("job failed", "error", err)
	}

	return report, err
}
