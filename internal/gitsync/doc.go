// Package gitsync wraps the git CLI for the shared content workspace. The
// remote repository doubles as the arbiter between kiosks: a rejected
// non-fast-forward push means another writer already landed, so rejection is
// a first-class outcome rather than an error.
package gitsync
