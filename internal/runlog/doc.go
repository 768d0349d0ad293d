// Package runlog persists coordinator run outcomes in a local SQLite
// database. The shared status file only holds the latest result; the run
// log keeps enough history across restarts to tell "tried and lost the
// race" apart from "tried and failed".
package runlog
