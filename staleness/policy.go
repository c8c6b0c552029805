// Package staleness holds the per-category freshness policy for cached data.
// All TTLs live in one declarative table rather than per call site, so the
// refresh behavior of a data category can be changed in a single place.
package staleness

import (
	"time"

	"github.com/bdougie/contributor.info-sub015/cache"
)

// Category identifies a class of cached data with a shared TTL.
type Category string

const (
	// CategoryRepository covers repository metadata lookups.
	CategoryRepository Category = "repository"

	// CategoryUserProfile covers user and contributor profile lookups.
	CategoryUserProfile Category = "user_profile"

	// CategoryPullRequests covers pull-request list responses.
	CategoryPullRequests Category = "pull_requests"

	// CategoryEvents covers short-lived activity/event feeds.
	CategoryEvents Category = "events"
)

// RefreshMode selects how a stale entry is handled on read.
type RefreshMode int

const (
	// RefreshBlocking refetches synchronously; the caller waits for fresh data.
	RefreshBlocking RefreshMode = iota

	// RefreshStaleWhileRevalidate returns the stale value immediately and
	// schedules a background refresh, trading freshness for latency.
	RefreshStaleWhileRevalidate
)

// Default TTLs per category.
const (
	DefaultRepositoryTTL   = 15 * time.Minute
	DefaultUserProfileTTL  = 30 * time.Minute
	DefaultPullRequestsTTL = 5 * time.Minute
	DefaultEventsTTL       = 2 * time.Minute

	// DefaultFallbackTTL applies to categories absent from the table.
	DefaultFallbackTTL = 5 * time.Minute
)

// Policy maps categories to TTLs. The zero value is not usable; construct
// with DefaultPolicy or NewPolicy.
type Policy struct {
	ttls     map[Category]time.Duration
	fallback time.Duration
}

// DefaultPolicy returns the policy table with the standard per-category TTLs.
func DefaultPolicy() Policy {
	return NewPolicy(map[Category]time.Duration{
		CategoryRepository:   DefaultRepositoryTTL,
		CategoryUserProfile:  DefaultUserProfileTTL,
		CategoryPullRequests: DefaultPullRequestsTTL,
		CategoryEvents:       DefaultEventsTTL,
	}, DefaultFallbackTTL)
}

// NewPolicy builds a policy from an explicit table. Entries with
// non-positive TTLs are dropped. A non-positive fallback uses the default.
func NewPolicy(ttls map[Category]time.Duration, fallback time.Duration) Policy {
	table := make(map[Category]time.Duration, len(ttls))
	for cat, ttl := range ttls {
		if ttl > 0 {
			table[cat] = ttl
		}
	}
	if fallback <= 0 {
		fallback = DefaultFallbackTTL
	}
	return Policy{ttls: table, fallback: fallback}
}

// TTL returns the time-to-live for a category.
func (p Policy) TTL(cat Category) time.Duration {
	if ttl, ok := p.ttls[cat]; ok {
		return ttl
	}
	return p.fallback
}

// IsStale reports whether a cache entry has outlived its category TTL.
// The decision uses the entry's age rather than its stored expiry, so a
// policy change takes effect on entries written before the change.
func (p Policy) IsStale(ent *cache.Entry, cat Category) bool {
	if ent == nil {
		return true
	}
	return ent.Age(time.Now()) > p.TTL(cat)
}
