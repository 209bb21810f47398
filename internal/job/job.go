package job

import (
	"fmt"

	"github.com/google/uuid"
)

// Default tuning, matching the endpoint's tolerances.
const (
	DefaultConcurrency = 6
	DefaultSegmentSize = 200
)

// State is the lifecycle of a job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Job identifies one conversion request. Immutable once the controller
// starts it.
type Job struct {
	ID          string
	Token       string
	StartPage   int
	EndPage     int
	OutputPath  string
	Concurrency int
	SegmentSize int
}

// New creates a job with a fresh ID and default tuning.
func New(token string, startPage, endPage int, outputPath string) Job {
	return Job{
		ID:          uuid.NewString(),
		Token:       token,
		StartPage:   startPage,
		EndPage:     endPage,
		OutputPath:  outputPath,
		Concurrency: DefaultConcurrency,
		SegmentSize: DefaultSegmentSize,
	}
}

// TotalPages returns the page count of the requested range.
func (j Job) TotalPages() int { return j.EndPage - j.StartPage + 1 }

// validate checks the job and fills defaults for zero-valued tuning.
func (j *Job) validate() error {
	if j.Token == "" {
		return fmt.Errorf("job: token is required")
	}
	if j.StartPage < 1 {
		return fmt.Errorf("job: start page %d must be >= 1", j.StartPage)
	}
	if j.EndPage < j.StartPage {
		return fmt.Errorf("job: end page %d before start page %d", j.EndPage, j.StartPage)
	}
	if j.OutputPath == "" {
		return fmt.Errorf("job: output path is required")
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Concurrency <= 0 {
		j.Concurrency = DefaultConcurrency
	}
	if j.SegmentSize <= 0 {
		j.SegmentSize = DefaultSegmentSize
	}
	return nil
}
