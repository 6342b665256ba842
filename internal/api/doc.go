// Package api defines the wire-format types shared by the HTTP server and the
// CLI, converters from internal models, and a small HTTP client.
//
// # Key Types
//
// JobView: transport representation of a remux job with its state tag,
// failure detail, and size-based progress.
//
// StatusResponse: daemon runtime information including worker health, job
// counts per state, dependency availability, and preflight results.
//
// DirListing/FileInfo: media library browsing and ffmpeg stream summaries.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Job states are exposed as their lowercase
// names; the listing tag ("OK", "Err: ...") is carried separately in
// Description. Timestamps use RFC3339 with milliseconds.
package api
