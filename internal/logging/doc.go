// Package logging assembles structured slog loggers and formatting helpers used
// across subremux.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so request handlers and the job worker
// tag log lines with job IDs and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail, a progress sampler
// that keeps long remuxes from flooding the log, and retention cleanup for
// per-run log files.
package logging
