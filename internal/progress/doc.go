// Package progress defines the event stream the pipeline publishes and a
// console reporter that renders it.
//
// The pipeline pushes structured Events into a Sink after every page
// resolution, segment completion, and terminal transition. Presentation
// layers implement Sink (or wrap a func with SinkFunc) and can be fanned
// out, so the pipeline never knows who is watching.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Output: os.Stderr,
//	})
//	reporter.Start()
//	defer reporter.Stop()
//
//	ctrl := job.NewController(..., reporter)
//
// # Output Format
//
//	[ctump] anatomy.pdf: pages 1-450 | 3 segments | 6 workers
//	[ctump] Progress: 45.2% | 204/450 pages | 3 failed | segment 2/3 | ETA: 1m 12s
package progress
