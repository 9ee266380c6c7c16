package utils

import (
	"time"
)

// PrettyDate formats t for human-facing messages, e.g. "Mon, 02 Jan 2006 15:04:05 UTC".
func PrettyDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006 15:04:05 MST")
}

// WithinTTL reports whether writtenAt is still fresh at now.
func WithinTTL(writtenAt, now time.Time, ttl time.Duration) bool {
	if writtenAt.IsZero() {
		return false
	}
	return now.Sub(writtenAt) < ttl
}
