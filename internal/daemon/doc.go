// Package daemon coordinates the long-running subremux process.
//
// It wires configuration, the remux job manager, subtitle storage, and the
// media library into a single lifecycle with flock-based locking to prevent
// multiple instances, and serves them over HTTP. Exactly one job worker runs
// per daemon; it is started before the API accepts its first request.
//
// Keep orchestration logic here: remux execution lives in internal/jobs and
// file handling in internal/subtitles and internal/library.
package daemon
