// Package jobs runs subtitle remux jobs one at a time in the background.
//
// A submission builds a Job, records it in the Registry, and pushes it onto
// the Queue. A single Worker pops jobs in FIFO order and hands each one to the
// Runner, which invokes ffmpeg to stream-copy the source's audio/video plus
// the new subtitle into the destination file. Job state only moves forward:
// idle, running, then succeeded or failed.
//
// The Registry keeps every job for the life of the process (optionally capped
// by jobs.history_limit, which only evicts finished jobs) so listings can show
// past and present work. Listing is safe while the worker mutates a running
// job; each Job guards its own state, and progress is estimated from the
// destination/source byte-size ratio, which is only meaningful for stream copy.
//
// There is exactly one Worker per Manager. If it stops for any reason other
// than shutdown, no further jobs run until the process restarts; Health
// reports this condition.
package jobs
