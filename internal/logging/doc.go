// Package logging provides slog construction with a console-friendly pretty
// handler and a JSON handler, standardized attribute keys, and log file
// retention for the daemon.
package logging
