// Package segment partitions a job's page range and builds the per-segment
// intermediate documents.
//
// This package coordinates between the page fetch client and the PDF codec.
// It manages the bounded worker pool for one segment at a time: workers
// receive page numbers from a channel, fetch the image, convert it to a
// one-page PDF in the job scratch dir, and the builder merges the survivors
// in ascending page order into the segment's intermediate document.
//
// Per-page failures never escape a segment; they are recorded on the
// Artifact and the segment keeps going. A segment where every page failed
// yields an empty Artifact the assembler skips.
package segment
