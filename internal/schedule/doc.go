// Package schedule runs a job on a cron schedule, one run at a time.
//
// Ticks that fire while the previous run is still in progress are skipped.
// RunNow shares a run already in flight instead of starting a second one.
package schedule
