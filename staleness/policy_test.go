package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bdougie/contributor.info-sub015/cache"
)

func TestDefaultPolicy_TTLs(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	assert.Equal(t, 15*time.Minute, p.TTL(CategoryRepository))
	assert.Equal(t, 30*time.Minute, p.TTL(CategoryUserProfile))
	assert.Equal(t, 5*time.Minute, p.TTL(CategoryPullRequests))
	assert.Equal(t, 2*time.Minute, p.TTL(CategoryEvents))
}

func TestPolicy_FallbackTTL(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	assert.Equal(t, DefaultFallbackTTL, p.TTL(Category("unmapped")))
}

func TestNewPolicy_DropsInvalidEntries(t *testing.T) {
	t.Parallel()
	p := NewPolicy(map[Category]time.Duration{
		CategoryRepository: -time.Minute,
		CategoryEvents:     time.Minute,
	}, 0)

	assert.Equal(t, DefaultFallbackTTL, p.TTL(CategoryRepository))
	assert.Equal(t, time.Minute, p.TTL(CategoryEvents))
}

func TestPolicy_IsStale(t *testing.T) {
	t.Parallel()
	p := NewPolicy(map[Category]time.Duration{
		CategoryEvents: 50 * time.Millisecond,
	}, time.Minute)

	ent := &cache.Entry{
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	assert.False(t, p.IsStale(ent, CategoryEvents))

	old := &cache.Entry{
		CreatedAt: time.Now().Add(-time.Second),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.True(t, p.IsStale(old, CategoryEvents), "age beats stored expiry")

	assert.True(t, p.IsStale(nil, CategoryEvents))
}
