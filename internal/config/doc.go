// Package config loads, normalizes, and validates marquee's TOML
// configuration. Defaults live in defaults.go; Load applies the file on top
// of Default and then normalizes paths and bounds before validation.
package config
