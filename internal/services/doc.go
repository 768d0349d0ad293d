// Package services defines the shared error taxonomy and context annotation
// helpers used across marquee's sync, scheduling, and recommendation
// components.
package services
