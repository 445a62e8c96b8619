// Package cycle runs one fetch-diff-store-notify cycle.
//
// A cycle loads the stored snapshot, fetches the current one, compares them
// by listing ID, replaces the stored snapshot when something changed, and
// always sends a notification. Load, fetch and replace failures abort the
// cycle before any notification is sent. A delivery failure is recorded on
// the cycle report but does not fail the cycle.
//
// Runner is not safe for concurrent use of RunCycle; callers serialize
// cycles (see the schedule package).
package cycle
