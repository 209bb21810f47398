// Package job orchestrates one document conversion end to end.
//
// A Controller owns a single DocumentJob for its lifetime: it computes the
// segment plan, drives the segment builder strictly in order, aggregates
// progress, reacts to cancellation, merges the intermediate documents into
// the final PDF, and removes the scratch directory on every exit path.
//
// # State machine
//
//	pending -> running -> completed | failed | cancelled
//
// Terminal states are final. Cancellation is cooperative and is not an
// error: in-flight page fetches finish, no further work starts, and the
// job reports cancelled with no output file.
package job
