package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/contributor.info-sub015/cache"
	"github.com/bdougie/contributor.info-sub015/errors"
	"github.com/bdougie/contributor.info-sub015/staleness"
)

func newTestFetcher(t *testing.T, opts ...Option) *Fetcher {
	t.Helper()

	store := cache.NewStore(cache.WithMaxEntries(100))
	t.Cleanup(store.Close)

	policy := staleness.NewPolicy(map[staleness.Category]time.Duration{
		staleness.CategoryPullRequests: 50 * time.Millisecond,
	}, time.Minute)

	base := []Option{WithBackoff(time.Millisecond), WithTimeout(time.Second)}
	return NewFetcher(store, policy, append(base, opts...)...)
}

func countingCall(calls *atomic.Int32, value interface{}) CallFunc {
	return func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestFetcher_MissThenHit(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t)

	var calls atomic.Int32
	req := Request{
		Endpoint: "repos/owner/repo",
		Category: staleness.CategoryRepository,
		Call:     countingCall(&calls, "repo-data"),
	}

	res, err := f.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "repo-data", res.Data)
	assert.False(t, res.FromCache)

	res, err = f.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "repo-data", res.Data)
	assert.True(t, res.FromCache)

	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_DeduplicatesConcurrentRequests(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t)

	var calls atomic.Int32
	release := make(chan struct{})
	req := Request{
		Endpoint: "repos/owner/repo/pulls",
		Params:   map[string]interface{}{"state": "open"},
		Category: staleness.CategoryPullRequests,
		Call: func(ctx context.Context) (interface{}, error) {
			calls.Add(1)
			<-release
			return []int{1, 2, 3}, nil
		},
	}

	const n = 10
	results := make([]interface{}, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.Do(context.Background(), req)
			errs[i] = err
			if err == nil {
				results[i] = res.Data
			}
		}(i)
	}

	// Let all callers pile up on the in-flight request before it resolves.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "exactly one underlying network call")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []int{1, 2, 3}, results[i], "all callers observe the same resolved value")
	}
}

func TestFetcher_FailureDoesNotPopulateCache(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t)

	req := Request{
		Endpoint: "repos/owner/private",
		Category: staleness.CategoryRepository,
		Call: func(ctx context.Context) (interface{}, error) {
			return nil, errors.New(errors.CodeForbidden, "Private repository")
		},
	}

	_, err := f.Do(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	_, ok := f.Store().Get(cache.Fingerprint(req.Endpoint, req.Params))
	assert.False(t, ok)
}

func TestFetcher_FailureLeavesOtherEntriesIntact(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t)

	var calls atomic.Int32
	good := Request{
		Endpoint: "users/alice",
		Category: staleness.CategoryUserProfile,
		Call:     countingCall(&calls, "alice-profile"),
	}
	_, err := f.Do(context.Background(), good)
	require.NoError(t, err)

	bad := Request{
		Endpoint: "users/bob",
		Category: staleness.CategoryUserProfile,
		Call: func(ctx context.Context) (interface{}, error) {
			return nil, errors.New(errors.CodeUnauthorized, "bad token")
		},
	}
	_, err = f.Do(context.Background(), bad)
	require.Error(t, err)

	res, err := f.Do(context.Background(), good)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "alice-profile", res.Data)
}

func TestFetcher_RetriesRetryableErrors(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t, WithRetries(2))

	var calls atomic.Int32
	req := Request{
		Endpoint: "repos/owner/repo",
		Category: staleness.CategoryRepository,
		Call: func(ctx context.Context) (interface{}, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New(errors.CodeNetwork, "connection reset")
			}
			return "eventually", nil
		},
	}

	res, err := f.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "eventually", res.Data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_DoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t, WithRetries(5))

	var calls atomic.Int32
	req := Request{
		Endpoint: "repos/owner/repo",
		Category: staleness.CategoryRepository,
		Call: func(ctx context.Context) (interface{}, error) {
			calls.Add(1)
			return nil, errors.New(errors.CodeInvalidInput, "malformed owner")
		},
	}

	_, err := f.Do(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "validation errors are not retried")
}

func TestFetcher_HonorsRetryAfterHint(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t, WithRetries(1), WithBackoff(10*time.Second))

	var calls atomic.Int32
	req := Request{
		Endpoint: "repos/owner/repo",
		Category: staleness.CategoryRepository,
		Call: func(ctx context.Context) (interface{}, error) {
			if calls.Add(1) == 1 {
				err := errors.New(errors.CodeRateLimit, "rate limit exceeded")
				return nil, errors.WithRetryAfter(err, 5*time.Millisecond)
			}
			return "after-limit", nil
		},
	}

	start := time.Now()
	res, err := f.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "after-limit", res.Data)
	assert.Equal(t, int32(2), calls.Load())
	assert.Less(t, time.Since(start), time.Second, "retry-after hint overrides the 10s backoff")
}

func TestFetcher_TimeoutIsAFailure(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t, WithTimeout(20*time.Millisecond), WithRetries(0))

	req := Request{
		Endpoint: "repos/owner/slow",
		Category: staleness.CategoryRepository,
		Call: func(ctx context.Context) (interface{}, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
				return "too late", nil
			}
		},
	}

	_, err := f.Do(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTimeout, errors.GetCode(err))

	_, ok := f.Store().Get("repos/owner/slow")
	assert.False(t, ok, "timed-out request does not populate the cache")
}

func TestFetcher_StaleWhileRevalidate(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t)

	var calls atomic.Int32
	req := Request{
		Endpoint: "repos/owner/repo/pulls",
		Category: staleness.CategoryPullRequests, // 50ms TTL in the test policy
		Mode:     staleness.RefreshStaleWhileRevalidate,
		Call: func(ctx context.Context) (interface{}, error) {
			return int(calls.Add(1)), nil
		},
	}

	res, err := f.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data)
	assert.False(t, res.FromCache)

	time.Sleep(80 * time.Millisecond) // let the entry expire

	res, err = f.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data, "stale value served immediately")
	assert.True(t, res.FromCache)
	assert.True(t, res.Stale)

	// The background refresh replaces the entry.
	key := cache.Fingerprint(req.Endpoint, req.Params)
	require.Eventually(t, func() bool {
		ent, ok := f.Store().Get(key)
		return ok && ent.Value == 2
	}, time.Second, 5*time.Millisecond)
}

func TestFetcher_CancelDoesNotStopUnderlyingCall(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t)

	started := make(chan struct{})
	req := Request{
		Endpoint: "repos/owner/repo",
		Category: staleness.CategoryRepository,
		Call: func(ctx context.Context) (interface{}, error) {
			close(started)
			time.Sleep(50 * time.Millisecond)
			return "completed anyway", nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := f.Do(ctx, req)
	require.Error(t, err, "the waiting caller observes cancellation")

	// The call completes and populates the cache for future consumers.
	require.Eventually(t, func() bool {
		_, ok := f.Store().Get("repos/owner/repo")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestFetcher_ValidatesRequest(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t)

	_, err := f.Do(context.Background(), Request{Call: countingCall(&atomic.Int32{}, nil)})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = f.Do(context.Background(), Request{Endpoint: "repos/x/y"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
