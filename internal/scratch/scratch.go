// Package scratch manages the per-job temporary directory holding per-page
// and per-segment intermediate PDFs. One Dir per job; Remove is called on
// every job exit path, so nothing here outlives its job.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a job-scoped scratch directory.
type Dir struct {
	root string
}

// New creates a scratch directory under parent (or the system temp dir when
// parent is empty), tagged with the job ID.
func New(parent, jobID string) (*Dir, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("create scratch parent: %w", err)
		}
	}
	root, err := os.MkdirTemp(parent, "ctump-"+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// PageFile returns the path for one page's single-page PDF.
func (d *Dir) PageFile(page int) string {
	return filepath.Join(d.root, fmt.Sprintf("page_%06d.pdf", page))
}

// SegmentFile returns the path for a segment's intermediate PDF, named by
// its page range.
func (d *Dir) SegmentFile(start, end int) string {
	return filepath.Join(d.root, fmt.Sprintf("segment_%d_%d.pdf", start, end))
}

// RemovePages deletes the per-page PDFs for the given pages. Segment files
// stay until Remove.
func (d *Dir) RemovePages(pages []int) {
	for _, page := range pages {
		os.Remove(d.PageFile(page))
	}
}

// Remove deletes the scratch directory and everything in it.
func (d *Dir) Remove() error {
	return os.RemoveAll(d.root)
}
