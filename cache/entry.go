// Package cache provides the in-memory TTL store backing the request
// wrapper. Entries are keyed by request fingerprint, replaced on write,
// lazily removed on access past expiry, and bounded by a periodic sweep.
package cache

import "time"

// Entry is a single cached response plus its metadata. Entries are owned by
// the Store; callers must not retain or mutate them after the value is read.
type Entry struct {
	// Key is the request fingerprint this entry is stored under.
	Key string

	// Value is the cached response.
	Value interface{}

	// CreatedAt is when the entry was written.
	CreatedAt time.Time

	// ExpiresAt is when the entry stops being served without the
	// stale-while-revalidate flag.
	ExpiresAt time.Time

	// HitCount is the number of times the entry has been served.
	HitCount int64
}

// Expired reports whether the entry is past its expiry at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Age returns how long ago the entry was written.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
