package segment

import "fmt"

// Segment is a contiguous sub-range of a job's pages, processed as one unit
// to cap memory use.
type Segment struct {
	Index int // 1-based position in the plan
	Start int // first page, inclusive
	End   int // last page, inclusive
}

// Pages returns the number of pages in the segment.
func (s Segment) Pages() int { return s.End - s.Start + 1 }

func (s Segment) String() string {
	return fmt.Sprintf("segment %d [%d-%d]", s.Index, s.Start, s.End)
}

// Plan partitions the inclusive page range [start, end] into ordered,
// contiguous segments of at most size pages. The segments cover every page
// exactly once.
func Plan(start, end, size int) ([]Segment, error) {
	if start < 1 {
		return nil, fmt.Errorf("plan: start page %d must be >= 1", start)
	}
	if end < start {
		return nil, fmt.Errorf("plan: end page %d before start page %d", end, start)
	}
	if size < 1 {
		return nil, fmt.Errorf("plan: segment size %d must be >= 1", size)
	}

	var plan []Segment
	for cur := start; cur <= end; {
		segEnd := cur + size - 1
		if segEnd > end {
			segEnd = end
		}
		plan = append(plan, Segment{Index: len(plan) + 1, Start: cur, End: segEnd})
		cur = segEnd + 1
	}
	return plan, nil
}
