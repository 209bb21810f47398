package progress

// EventType identifies what an Event reports.
type EventType string

const (
	// EventJobStarted fires once, after the segment plan is computed.
	EventJobStarted EventType = "job_started"

	// EventPageCompleted fires after a page is fetched and converted.
	EventPageCompleted EventType = "page_completed"

	// EventPageFailed fires when a page is permanently given up on.
	EventPageFailed EventType = "page_failed"

	// EventSegmentCompleted fires after a segment's intermediate document
	// is written (or skipped when empty).
	EventSegmentCompleted EventType = "segment_completed"

	// EventJobFinished fires exactly once, on the terminal transition.
	EventJobFinished EventType = "job_finished"
)

// Event is one structured progress update. Counts are aggregates as of the
// moment of publication and are monotonically non-decreasing per job.
type Event struct {
	Type   EventType
	JobID  string
	Output string

	// Page is set on page events.
	Page int

	// Segment is the 1-based index of the current segment; Segments is the
	// plan length.
	Segment  int
	Segments int

	TotalPages int
	Completed  int
	Failed     int

	// State is the terminal state name, set on EventJobFinished.
	State string

	// Err is set on EventPageFailed (the page's last error) and on a failed
	// EventJobFinished.
	Err error
}

// Percent returns overall completion as 0-100, counting failed pages as
// resolved.
func (e Event) Percent() float64 {
	if e.TotalPages <= 0 {
		return 0
	}
	return float64(e.Completed+e.Failed) / float64(e.TotalPages) * 100
}

// Sink receives pipeline events. Publish must be safe for concurrent use
// and should not block; slow consumers must buffer on their side.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }

type fanout []Sink

func (s fanout) Publish(e Event) {
	for _, sink := range s {
		sink.Publish(e)
	}
}

// Fanout returns a Sink that forwards every event to all the given sinks,
// in order. Nil sinks are skipped.
func Fanout(sinks ...Sink) Sink {
	out := make(fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type nop struct{}

func (nop) Publish(Event) {}

// Nop returns a Sink that drops every event.
func Nop() Sink { return nop{} }
