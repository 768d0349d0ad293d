// Package version exposes the build version and the periodic release check.
package version

// Version is the marquee build version. Overridden at release time via
// -ldflags "-X marquee/internal/version.Version=v1.2.3".
var Version = "dev"
