// Package services defines shared utilities consumed by the job runner, the
// upload and library collaborators, and the HTTP surface.
//
// Key responsibilities:
//   - Context helpers that stamp job handles and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (validation, not found, external tool) without string matching.
package services
