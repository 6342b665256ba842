// Package textutil provides small text helpers shared by the upload path and
// job display: filesystem-safe file names, rune-aware truncation, and
// whitespace collapsing for single-line rendering of tool output.
package textutil
