// Package places is a minimal client for the Google Places web service:
// restaurant text search plus the detail fields used to build taglines.
package places
