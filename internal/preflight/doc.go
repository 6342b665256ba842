// Package preflight provides readiness checks for the directories and
// external tools subremux depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs a warning for each failure.
//     Failures do not prevent startup; jobs that depend on a broken path fail
//     individually.
//   - The CLI "subremux status" command renders the same results.
package preflight
