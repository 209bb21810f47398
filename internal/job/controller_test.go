package job

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/VitStudio/ctump-pdf/internal/fetch"
	"github.com/VitStudio/ctump-pdf/internal/pdf"
	"github.com/VitStudio/ctump-pdf/internal/progress"
	"github.com/VitStudio/ctump-pdf/internal/testutil"
	_ "gocloud.dev/blob/memblob"
)

type testEnv struct {
	server  *testutil.PageServer
	fetcher *fetch.Client
	codec   *pdf.Codec
	scratch string
	outDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	server := testutil.StartPageServer(t)

	opts := fetch.DefaultOptions()
	opts.BaseURL = server.URL
	opts.Retry.MaxAttempts = 3
	opts.Retry.Base = time.Millisecond
	opts.Retry.Cap = 5 * time.Millisecond

	codec, err := pdf.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	return &testEnv{
		server:  server,
		fetcher: fetch.NewClient(opts),
		codec:   codec,
		scratch: t.TempDir(),
		outDir:  t.TempDir(),
	}
}

func (env *testEnv) controller(t *testing.T, j Job, sink progress.Sink) *Controller {
	t.Helper()
	return NewController(j, env.fetcher, env.codec, Options{
		Sink:       sink,
		ScratchDir: env.scratch,
	})
}

// assertNoScratchLeft checks that every per-job temp file is gone.
func (env *testEnv) assertNoScratchLeft(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(env.scratch)
	if err != nil {
		t.Fatalf("read scratch parent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temporary files remain after terminal state: %v", entries)
	}
}

func TestRunCompletes(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.outDir, "doc.pdf")

	j := New("tok", 1, 10, out)
	j.SegmentSize = 4
	j.Concurrency = 3

	report, err := env.controller(t, j, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.State != StateCompleted {
		t.Fatalf("expected completed, got %s", report.State)
	}
	if report.Completed != 10 || report.Failed != 0 {
		t.Errorf("expected 10/0, got %d/%d", report.Completed, report.Failed)
	}
	if report.CompletedWithWarnings() {
		t.Error("clean run must not carry warnings")
	}

	n, err := env.codec.PageCount(out)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 10 {
		t.Errorf("final document has %d pages, expected 10", n)
	}
	env.assertNoScratchLeft(t)
}

func TestRunCompletedWithWarnings(t *testing.T) {
	env := newTestEnv(t)
	env.server.FailPage(3, http.StatusNotFound)
	out := filepath.Join(env.outDir, "doc.pdf")

	j := New("tok", 1, 5, out)
	report, err := env.controller(t, j, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.State != StateCompleted || !report.CompletedWithWarnings() {
		t.Fatalf("expected completed-with-warnings, got %s (failed=%d)", report.State, report.Failed)
	}
	if len(report.FailedPages) != 1 || report.FailedPages[0] != 3 {
		t.Errorf("expected failed set {3}, got %v", report.FailedPages)
	}

	n, err := env.codec.PageCount(out)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 4 {
		t.Errorf("final document has %d pages, expected 4", n)
	}
	env.assertNoScratchLeft(t)
}

func TestRunFailsWhenNothingSucceeds(t *testing.T) {
	env := newTestEnv(t)
	for page := 1; page <= 4; page++ {
		env.server.FailPage(page, http.StatusNotFound)
	}
	out := filepath.Join(env.outDir, "doc.pdf")

	report, err := env.controller(t, New("tok", 1, 4, out), nil).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var aerr *pdf.AssemblyError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *pdf.AssemblyError, got %v", err)
	}
	if report.State != StateFailed {
		t.Errorf("expected failed state, got %s", report.State)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output file should exist")
	}
	env.assertNoScratchLeft(t)
}

func TestRunCancelledMidJob(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.outDir, "doc.pdf")

	j := New("tok", 1, 30, out)
	j.SegmentSize = 10
	j.Concurrency = 2

	var ctrl *Controller
	sink := progress.SinkFunc(func(e progress.Event) {
		// Cancel once segment 2 of 3 is underway.
		if e.Type == progress.EventPageCompleted && e.Segment == 2 {
			ctrl.Cancel()
		}
	})
	ctrl = env.controller(t, j, sink)

	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("cancellation must not be an error, got %v", err)
	}
	if report.State != StateCancelled {
		t.Fatalf("expected cancelled, got %s", report.State)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output file should exist after cancellation")
	}
	env.assertNoScratchLeft(t)
}

func TestRunValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []Job{
		{Token: "", StartPage: 1, EndPage: 2, OutputPath: "x.pdf"},
		{Token: "t", StartPage: 0, EndPage: 2, OutputPath: "x.pdf"},
		{Token: "t", StartPage: 5, EndPage: 2, OutputPath: "x.pdf"},
		{Token: "t", StartPage: 1, EndPage: 2, OutputPath: ""},
	}
	for i, j := range cases {
		report, err := env.controller(t, j, nil).Run(context.Background())
		if err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
		if report.State != StateFailed {
			t.Errorf("case %d: expected failed state, got %s", i, report.State)
		}
	}
}

func TestRunEmitsMonotonicCounts(t *testing.T) {
	env := newTestEnv(t)
	env.server.FailPage(2, http.StatusNotFound)
	out := filepath.Join(env.outDir, "doc.pdf")

	var mu sync.Mutex
	var events []progress.Event
	sink := progress.SinkFunc(func(e progress.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	j := New("tok", 1, 6, out)
	j.SegmentSize = 3
	if _, err := env.controller(t, j, sink).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if events[0].Type != progress.EventJobStarted {
		t.Errorf("first event should be job_started, got %s", events[0].Type)
	}
	last := events[len(events)-1]
	if last.Type != progress.EventJobFinished || last.State != string(StateCompleted) {
		t.Errorf("last event should be a completed job_finished, got %+v", last)
	}

	prevCompleted, prevFailed := 0, 0
	for _, e := range events {
		if e.Completed < prevCompleted || e.Failed < prevFailed {
			t.Fatalf("counts regressed: %+v after %d/%d", e, prevCompleted, prevFailed)
		}
		prevCompleted, prevFailed = e.Completed, e.Failed
	}
	if prevCompleted != 5 || prevFailed != 1 {
		t.Errorf("final counts %d/%d, expected 5/1", prevCompleted, prevFailed)
	}
}

func TestProgressSnapshotReadableDuringRun(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.outDir, "doc.pdf")

	var ctrl *Controller
	var sawRunning atomic.Bool
	sink := progress.SinkFunc(func(e progress.Event) {
		if e.Type == progress.EventPageCompleted {
			if snap := ctrl.Progress(); snap.State == StateRunning {
				sawRunning.Store(true)
			}
		}
	})
	ctrl = env.controller(t, New("tok", 1, 4, out), sink)

	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sawRunning.Load() {
		t.Error("snapshot never observed the running state")
	}
	if snap := ctrl.Progress(); snap.State != StateCompleted || snap.Percent() != 100 {
		t.Errorf("terminal snapshot wrong: %+v", snap)
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateFailed, StateCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StatePending, StateRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestRunPublishes(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.outDir, "doc.pdf")

	ctrl := NewController(New("tok", 1, 2, out), env.fetcher, env.codec, Options{
		ScratchDir: env.scratch,
		PublishURL: "mem://",
	})

	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.State != StateCompleted {
		t.Fatalf("expected completed, got %s", report.State)
	}
}
