package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestReporterRendersLifecycle(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf, UpdateInterval: 10 * time.Millisecond})
	r.Start()

	r.Publish(Event{Type: EventJobStarted, Output: "doc.pdf", TotalPages: 4, Segments: 2})
	r.Publish(Event{Type: EventPageCompleted, Page: 1, Segment: 1, TotalPages: 4, Completed: 1})
	r.Publish(Event{Type: EventPageFailed, Page: 2, Segment: 1, TotalPages: 4, Completed: 1, Failed: 1})
	r.Publish(Event{Type: EventJobFinished, State: "completed", Output: "doc.pdf", TotalPages: 4, Completed: 3, Failed: 1})
	r.Stop()
	r.Stop() // idempotent

	out := buf.String()
	if !strings.Contains(out, "doc.pdf: 4 pages | 2 segments") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "page 2 failed") {
		t.Errorf("missing page failure line: %q", out)
	}
	if !strings.Contains(out, "Done with warnings") || !strings.Contains(out, "1 missing") {
		t.Errorf("missing warnings summary: %q", out)
	}
}

func TestReporterCancelledSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf})

	r.Publish(Event{Type: EventJobFinished, State: "cancelled", TotalPages: 10, Completed: 3})
	if !strings.Contains(buf.String(), "Cancelled") {
		t.Errorf("missing cancelled summary: %q", buf.String())
	}
}
