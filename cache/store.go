package cache

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxEntries bounds the store before oldest-first eviction kicks in.
	DefaultMaxEntries = 10

	// DefaultSweepInterval is how often the background sweep removes expired
	// entries and enforces the capacity bound.
	DefaultSweepInterval = 30 * time.Second
)

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// Store is an in-memory keyed TTL cache. It is safe for concurrent use.
//
// The store holds at most one entry per key; writes replace. An expired entry
// is never returned by Get. GetStale may return an expired entry exactly once
// for stale-while-revalidate reads.
type Store struct {
	mu     sync.RWMutex
	items  map[string]*Entry
	hits   uint64
	misses uint64

	maxEntries    int
	sweepInterval time.Duration
	log           *zap.Logger

	done chan struct{}
	once sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries sets the capacity bound. Once exceeded, entries with the
// oldest CreatedAt are evicted first.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithSweepInterval sets how often the background sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithLogger sets the logger used for sweep reporting. The default is a no-op.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates a Store and starts its background sweep.
// Call Close to stop the sweep goroutine.
func NewStore(opts ...Option) *Store {
	s := &Store{
		items:         make(map[string]*Entry),
		maxEntries:    DefaultMaxEntries,
		sweepInterval: DefaultSweepInterval,
		log:           zap.NewNop(),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.sweepLoop()
	return s
}

// Get returns the entry for key if present and fresh. Expired entries are
// removed and reported as a miss.
func (s *Store) Get(key string) (*Entry, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.items[key]
	if !ok {
		s.misses++
		return nil, false
	}
	if ent.Expired(now) {
		delete(s.items, key)
		s.misses++
		return nil, false
	}

	ent.HitCount++
	s.hits++
	return ent, true
}

// GetStale returns the entry for key even past its expiry. The second return
// reports presence, the third whether the entry was expired.
//
// An expired entry is removed from the store when returned, so a stale value
// is served at most once; the caller is expected to refresh and re-Set it.
func (s *Store) GetStale(key string) (*Entry, bool, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.items[key]
	if !ok {
		s.misses++
		return nil, false, false
	}

	if ent.Expired(now) {
		delete(s.items, key)
		s.hits++
		return ent, true, true
	}

	ent.HitCount++
	s.hits++
	return ent, true, false
}

// Set stores value under key with the given TTL, replacing any existing
// entry. A non-positive TTL stores an entry that is already expired.
func (s *Store) Set(key string, value interface{}, ttl time.Duration) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = &Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.evictOverCapLocked()
}

// Invalidate removes the entry for key. Removing an absent key is a no-op.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// InvalidatePrefix removes every entry whose key starts with prefix.
// Returns the number of entries removed.
func (s *Store) InvalidatePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*Entry)
}

// Stats returns current hit/miss counters and entry count.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Hits:   s.hits,
		Misses: s.misses,
		Size:   len(s.items),
	}
}

// Close stops the background sweep. The store remains usable afterwards.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			removed := s.sweep()
			if removed > 0 {
				s.log.Debug("cache sweep",
					zap.Int("removed", removed),
					zap.Int("size", s.size()))
			}
		}
	}
}

// sweep removes expired entries and enforces the capacity bound.
func (s *Store) sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ent := range s.items {
		if ent.Expired(now) {
			delete(s.items, k)
			removed++
		}
	}
	removed += s.evictOverCapLocked()
	return removed
}

// evictOverCapLocked evicts oldest-CreatedAt entries until the store is
// within capacity. Caller must hold mu.
func (s *Store) evictOverCapLocked() int {
	evicted := 0
	for len(s.items) > s.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for k, ent := range s.items {
			if oldestKey == "" || ent.CreatedAt.Before(oldest) {
				oldestKey = k
				oldest = ent.CreatedAt
			}
		}
		delete(s.items, oldestKey)
		evicted++
	}
	return evicted
}

func (s *Store) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
