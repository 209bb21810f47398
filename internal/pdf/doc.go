// Package pdf wraps the PDF toolkit behind the two operations the pipeline
// needs: turning a fetched page image into a one-page PDF, and merging
// ordered PDFs into larger ones.
//
// The Codec is used twice per job: SegmentBuilder converts each successful
// page and merges a segment's pages into its intermediate document, then the
// Assembler merges the intermediate documents into the final output and runs
// an optimization pass so the first page is cheap to reach.
//
// Per-page conversion failures are ordinary errors the caller records and
// skips; AssemblyError marks failures that end the whole job.
package pdf
