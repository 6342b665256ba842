// Package library exposes the media directory to the HTTP API and CLI.
//
// Browser resolves request paths relative to paths.media_dir, refusing any
// path that would escape it, and lists directories filtered to the
// configured media extensions. Inspector runs "ffmpeg -i" against a file and
// keeps only the stream and duration lines, which is enough to decide which
// tracks a remux will copy.
package library
