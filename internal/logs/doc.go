// Package logs reads the daemon's per-run log files for the CLI: it finds the
// newest run log, returns its last lines, and follows appended output.
package logs
