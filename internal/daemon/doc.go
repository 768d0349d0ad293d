// Package daemon wires configuration, git sync, the recommendation
// coordinator, and the trigger scheduler into the long-running marquee
// process, and enforces single-instance execution via a lock file.
package daemon
