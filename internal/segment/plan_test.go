package segment

import "testing"

func TestPlanScenario(t *testing.T) {
	// [1,10] with size 4 -> [1-4], [5-8], [9-10]
	plan, err := Plan(1, 10, 4)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []Segment{
		{Index: 1, Start: 1, End: 4},
		{Index: 2, Start: 5, End: 8},
		{Index: 3, Start: 9, End: 10},
	}
	if len(plan) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(plan))
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Errorf("segment %d: got %+v, want %+v", i, plan[i], want[i])
		}
	}
}

func TestPlanPartitions(t *testing.T) {
	ranges := []struct{ start, end, size int }{
		{1, 1, 1},
		{1, 1, 200},
		{1, 200, 200},
		{1, 201, 200},
		{5, 450, 64},
		{7, 7, 3},
		{3, 1000, 1},
	}

	for _, r := range ranges {
		plan, err := Plan(r.start, r.end, r.size)
		if err != nil {
			t.Fatalf("Plan(%d,%d,%d): %v", r.start, r.end, r.size, err)
		}

		n := r.end - r.start + 1
		wantSegs := (n + r.size - 1) / r.size
		if len(plan) != wantSegs {
			t.Errorf("Plan(%d,%d,%d): expected %d segments, got %d", r.start, r.end, r.size, wantSegs, len(plan))
		}

		// Contiguous, ordered, no gaps or overlaps, size bounded.
		next := r.start
		for i, seg := range plan {
			if seg.Index != i+1 {
				t.Errorf("segment %d has index %d", i, seg.Index)
			}
			if seg.Start != next {
				t.Errorf("Plan(%d,%d,%d): segment %d starts at %d, expected %d", r.start, r.end, r.size, i, seg.Start, next)
			}
			if seg.Pages() > r.size || seg.Pages() < 1 {
				t.Errorf("segment %d has %d pages, size limit %d", i, seg.Pages(), r.size)
			}
			next = seg.End + 1
		}
		if next != r.end+1 {
			t.Errorf("Plan(%d,%d,%d): coverage ends at %d, expected %d", r.start, r.end, r.size, next-1, r.end)
		}
	}
}

func TestPlanRejectsInvalidRanges(t *testing.T) {
	cases := []struct{ start, end, size int }{
		{0, 10, 5},
		{-1, 10, 5},
		{5, 4, 5},
		{1, 10, 0},
	}
	for _, c := range cases {
		if _, err := Plan(c.start, c.end, c.size); err == nil {
			t.Errorf("Plan(%d,%d,%d): expected error", c.start, c.end, c.size)
		}
	}
}
