// Package schedule runs the daemon's tick loop: slot triggers that fire
// at-most-once per calendar minute, and interval triggers that fire when
// enough time has passed since their last run. The clock is injectable so
// the at-most-once behavior is testable without waiting for wall time.
package schedule
