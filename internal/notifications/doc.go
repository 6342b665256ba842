// Package notifications delivers remux job events via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can publish unconditionally.
package notifications
