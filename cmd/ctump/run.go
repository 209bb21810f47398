package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/VitStudio/ctump-pdf/internal/config"
	"github.com/VitStudio/ctump-pdf/internal/fetch"
	"github.com/VitStudio/ctump-pdf/internal/job"
	"github.com/VitStudio/ctump-pdf/internal/pdf"
	"github.com/VitStudio/ctump-pdf/internal/progress"
)

// runner executes jobs sequentially with shared fetch client and codec, and
// maps SIGINT to cooperative cancellation (second SIGINT aborts hard).
type runner struct {
	cfg    config.Config
	logger *slog.Logger

	current atomic.Pointer[job.Controller]
	stop    atomic.Bool
}

// normalizeOutput appends .pdf when the name lacks it.
func normalizeOutput(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// sanitizeTuning applies the CLI floors: at least 1 worker, at least 20
// pages per segment.
func sanitizeTuning(j *job.Job) {
	if j.Concurrency < 1 {
		j.Concurrency = 1
	}
	if j.SegmentSize < 20 {
		j.SegmentSize = 20
	}
}

func (r *runner) run(ctx context.Context, jobs []job.Job) error {
	if err := r.cfg.Validate(); err != nil {
		return exitWithCode(ExitInvalidArgs, err.Error())
	}

	ctx, hardCancel := context.WithCancel(ctx)
	defer hardCancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[ctump] Interrupt: finishing in-flight pages, press again to abort")
		r.stop.Store(true)
		if ctrl := r.current.Load(); ctrl != nil {
			ctrl.Cancel()
		}
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[ctump] Aborting")
		hardCancel()
	}()

	fetcher := fetch.NewClient(r.cfg.FetchOptions())
	codec, err := pdf.NewCodec()
	if err != nil {
		return exitWithCode(ExitFailed, err.Error())
	}

	var anyFailed, anyCancelled, anyWarnings bool
	for _, j := range jobs {
		if r.stop.Load() || ctx.Err() != nil {
			anyCancelled = true
			break
		}

		var sink progress.Sink
		var reporter *progress.Reporter
		if r.cfg.Progress {
			reporter = progress.NewReporter(progress.Options{Output: os.Stderr})
			reporter.Start()
			sink = reporter
		}

		ctrl := job.NewController(j, fetcher, codec, job.Options{
			Sink:       sink,
			Logger:     r.logger,
			ScratchDir: r.cfg.ScratchDir,
			PublishURL: r.cfg.PublishURL,
		})
		r.current.Store(ctrl)

		report, err := ctrl.Run(ctx)
		r.current.Store(nil)
		if reporter != nil {
			reporter.Stop()
		}

		switch report.State {
		case job.StateFailed:
			anyFailed = true
			r.logger.Error("job failed", "output", j.OutputPath, "error", err)
		case job.StateCancelled:
			anyCancelled = true
		case job.StateCompleted:
			if report.CompletedWithWarnings() {
				anyWarnings = true
			}
		}
	}

	switch {
	case anyFailed:
		return exitWithCode(ExitFailed, "")
	case anyCancelled:
		return exitWithCode(ExitCancelled, "")
	case anyWarnings:
		return exitWithCode(ExitWarnings, "")
	}
	return nil
}
