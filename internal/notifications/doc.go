// Package notifications sends optional operator notifications through ntfy.
// Without a configured topic every call is a no-op.
package notifications
