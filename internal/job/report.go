package job

// Snapshot is a point-in-time view of a running job's progress. Counts are
// monotonically non-decreasing over the job's lifetime.
type Snapshot struct {
	State      State
	TotalPages int
	Completed  int
	Failed     int
	Segment    int // 1-based index of the segment being processed
	Segments   int
	Cancelled  bool
}

// Percent returns overall completion as 0-100, counting failed pages as
// resolved.
func (s Snapshot) Percent() float64 {
	if s.TotalPages <= 0 {
		return 0
	}
	return float64(s.Completed+s.Failed) / float64(s.TotalPages) * 100
}

// Report is the terminal outcome of a job.
type Report struct {
	JobID       string
	State       State
	TotalPages  int
	Completed   int
	Failed      int
	FailedPages []int  // ascending
	OutputPath  string // empty unless completed
	Err         error  // set when State == StateFailed
}

// CompletedWithWarnings reports a completed job that is missing pages.
func (r *Report) CompletedWithWarnings() bool {
	return r.State == StateCompleted && r.Failed > 0
}
