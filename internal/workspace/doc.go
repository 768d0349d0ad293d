// Package workspace reads and writes the git-backed content tree shared by
// all kiosks: per-team section documents, the rotation history that keeps
// recommendations fresh, and the status file the displays poll.
package workspace
