package segment

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/VitStudio/ctump-pdf/internal/fetch"
	"github.com/VitStudio/ctump-pdf/internal/pdf"
	"github.com/VitStudio/ctump-pdf/internal/scratch"
)

// Fetcher retrieves one page image. *fetch.Client implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, token string, page int) (*fetch.Page, error)
}

// PageResult is the final outcome for one page within a segment.
type PageResult struct {
	Page     int
	OK       bool
	Attempts int
	Err      error // fetch or conversion error when !OK
}

// Artifact is the product of building one segment: the intermediate
// document plus the pages that permanently failed. An empty segment (zero
// successful pages) has Path == "".
type Artifact struct {
	Segment Segment
	Path    string
	Pages   []int        // successful pages, ascending
	Failed  []PageResult // permanently failed pages, ascending
}

// Empty reports whether the segment produced no document.
func (a *Artifact) Empty() bool { return a.Path == "" }

// Options configures the builder.
type Options struct {
	// Concurrency bounds in-flight page fetches within a segment.
	// Default: 6
	Concurrency int

	// OnPage, if set, is called once per page after its final outcome is
	// known. Called from worker goroutines; must be safe for concurrent use.
	OnPage func(PageResult)

	// Cancelled, if set, is consulted before dispatching each page. Once it
	// returns true no further pages start; in-flight pages run to
	// completion.
	Cancelled func() bool
}

// Builder produces one Artifact per Segment using a bounded worker pool.
type Builder struct {
	fetcher Fetcher
	codec   *pdf.Codec
	opts    Options
}

// NewBuilder creates a segment builder.
func NewBuilder(fetcher Fetcher, codec *pdf.Codec, opts Options) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 6
	}
	return &Builder{fetcher: fetcher, codec: codec, opts: opts}
}

// Build fetches every page of seg with bounded concurrency, converts the
// successes to one-page PDFs in dir, and merges them in ascending page
// order into the segment's intermediate document.
//
// Per-page fetch and conversion failures are recorded on the Artifact, not
// returned. The only error paths are assembly machinery failures
// (*pdf.AssemblyError), which are fatal to the job.
func (b *Builder) Build(ctx context.Context, token string, seg Segment, dir *scratch.Dir) (*Artifact, error) {
	workers := b.opts.Concurrency
	if n := seg.Pages(); workers > n {
		workers = n
	}

	pages := make(chan int)
	var (
		mu      sync.Mutex
		results []PageResult
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pages {
				res := b.buildPage(ctx, token, page, dir)

				mu.Lock()
				results = append(results, res)
				mu.Unlock()

				if b.opts.OnPage != nil {
					b.opts.OnPage(res)
				}
			}
		}()
	}

	// Feed pages to workers; stop dispatching on cancellation but let
	// in-flight pages finish so no page file is left half-written.
	go func() {
		defer close(pages)
		for page := seg.Start; page <= seg.End; page++ {
			if b.cancelled() || ctx.Err() != nil {
				return
			}
			select {
			case pages <- page:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Page < results[j].Page })

	artifact := &Artifact{Segment: seg}
	var pagePaths []string
	for _, res := range results {
		if res.OK {
			artifact.Pages = append(artifact.Pages, res.Page)
			pagePaths = append(pagePaths, dir.PageFile(res.Page))
		} else {
			artifact.Failed = append(artifact.Failed, res)
		}
	}

	if len(pagePaths) == 0 {
		return artifact, nil
	}

	segPath := dir.SegmentFile(seg.Start, seg.End)
	if err := b.codec.Merge(pagePaths, segPath); err != nil {
		return nil, err
	}
	dir.RemovePages(artifact.Pages)

	artifact.Path = segPath
	return artifact, nil
}

// buildPage resolves one page: fetch, then convert to a one-page PDF. A
// conversion failure is recorded the same way as a fetch failure.
func (b *Builder) buildPage(ctx context.Context, token string, page int, dir *scratch.Dir) PageResult {
	fetched, err := b.fetcher.FetchPage(ctx, token, page)
	if err != nil {
		res := PageResult{Page: page, Err: err, Attempts: 1}
		var ferr *fetch.Error
		if errors.As(err, &ferr) {
			res.Attempts = ferr.Attempts
		}
		return res
	}

	if err := b.codec.ConvertPageFile(fetched.Body, dir.PageFile(page)); err != nil {
		return PageResult{Page: page, Err: err, Attempts: fetched.Attempts}
	}

	return PageResult{Page: page, OK: true, Attempts: fetched.Attempts}
}

func (b *Builder) cancelled() bool {
	return b.opts.Cancelled != nil && b.opts.Cancelled()
}
