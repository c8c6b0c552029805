// Package fetch implements the request wrapper between consumers and the
// network. It consults the TTL cache, de-duplicates concurrent identical
// requests, retries retryable failures with backoff, and applies the
// per-category staleness policy on every read and write.
package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bdougie/contributor.info-sub015/cache"
	"github.com/bdougie/contributor.info-sub015/errors"
	"github.com/bdougie/contributor.info-sub015/staleness"
)

// CallFunc performs the underlying network call for a request.
type CallFunc func(ctx context.Context) (interface{}, error)

// Request describes one cacheable outbound call.
type Request struct {
	// Endpoint identifies the logical operation (e.g. "repos/owner/repo/pulls").
	// It prefixes the fingerprint, so endpoint-level invalidation works.
	Endpoint string

	// Params are the identifying parameters. Order-independent: two requests
	// with equal params map to the same cache key.
	Params map[string]interface{}

	// Category selects the TTL row from the staleness policy table.
	Category staleness.Category

	// Mode selects blocking refetch (default) or stale-while-revalidate.
	Mode staleness.RefreshMode

	// Call performs the network request on a miss.
	Call CallFunc
}

// Result is the outcome of a successful fetch.
type Result struct {
	// Data is the response value, either cached or freshly fetched.
	Data interface{}

	// FromCache reports whether Data was served from the cache.
	FromCache bool

	// Stale reports that Data is past its TTL and a background refresh has
	// been scheduled. Only set in stale-while-revalidate mode.
	Stale bool

	// ResponseTime is the total time the caller waited.
	ResponseTime time.Duration
}

// Fetcher wraps outbound calls with caching, de-duplication, and retries.
// A single Fetcher is shared by all consumers; it is safe for concurrent use.
type Fetcher struct {
	store   *cache.Store
	policy  staleness.Policy
	sf      singleflight.Group
	timeout time.Duration
	retries int
	backoff time.Duration
	log     *zap.Logger
}

// NewFetcher creates a Fetcher on top of the given store and policy table.
func NewFetcher(store *cache.Store, policy staleness.Policy, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:   store,
		policy:  policy,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		backoff: DefaultBackoff,
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Store returns the underlying cache store, for invalidation by callers that
// know a category of data changed (e.g. after a sync job completes).
func (f *Fetcher) Store() *cache.Store {
	return f.store
}

// Policy returns the staleness policy table in use.
func (f *Fetcher) Policy() staleness.Policy {
	return f.policy
}

// Do executes a request through the cache.
//
// A fresh cached entry is returned immediately. In blocking mode a stale or
// missing entry triggers a synchronous network call; in stale-while-revalidate
// mode a stale entry is returned at once and refreshed in the background.
//
// Concurrent calls with the same fingerprint share one underlying network
// call. Failures never modify the cache: a previously cached value survives a
// failed refresh, and the error carries the structured code the caller needs
// for retry or display decisions.
//
// Cancelling ctx stops the wait, not the underlying call, which is allowed to
// complete and populate the cache for future consumers.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.Endpoint == "" {
		return nil, errors.New(errors.CodeInvalidInput, "endpoint must not be empty")
	}
	if req.Call == nil {
		return nil, errors.New(errors.CodeInvalidInput, "request call must not be nil")
	}

	key := cache.Fingerprint(req.Endpoint, req.Params)
	ttl := f.policy.TTL(req.Category)

	if req.Mode == staleness.RefreshStaleWhileRevalidate {
		if ent, ok, stale := f.store.GetStale(key); ok {
			if stale {
				f.refreshInBackground(ctx, key, ttl, req)
			}
			return &Result{
				Data:         ent.Value,
				FromCache:    true,
				Stale:        stale,
				ResponseTime: time.Since(start),
			}, nil
		}
	} else if ent, ok := f.store.Get(key); ok {
		return &Result{
			Data:         ent.Value,
			FromCache:    true,
			ResponseTime: time.Since(start),
		}, nil
	}

	val, err := f.fetchShared(ctx, key, ttl, req)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:         val,
		ResponseTime: time.Since(start),
	}, nil
}

// fetchShared runs the network call under singleflight and waits for the
// shared result. The call itself runs on a context detached from the caller
// so one consumer going away does not waste everyone else's request.
func (f *Fetcher) fetchShared(ctx context.Context, key string, ttl time.Duration, req Request) (interface{}, error) {
	callCtx := context.WithoutCancel(ctx)

	ch := f.sf.DoChan(key, func() (interface{}, error) {
		val, err := f.callWithRetry(callCtx, req)
		if err != nil {
			return nil, err
		}
		f.store.Set(key, val, ttl)
		return val, nil
	})

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrap(ctx.Err(), errors.CodeTimeout, "request timed out")
		}
		return nil, errors.Wrap(ctx.Err(), errors.CodeInternal, "request canceled")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}

// refreshInBackground schedules an async refetch for a stale key. Singleflight
// collapses concurrent refreshes of the same key into one call.
func (f *Fetcher) refreshInBackground(ctx context.Context, key string, ttl time.Duration, req Request) {
	callCtx := context.WithoutCancel(ctx)

	go func() {
		_, err, _ := f.sf.Do(key, func() (interface{}, error) {
			val, err := f.callWithRetry(callCtx, req)
			if err != nil {
				return nil, err
			}
			f.store.Set(key, val, ttl)
			return val, nil
		})
		if err != nil {
			f.log.Warn("background refresh failed",
				zap.String("endpoint", req.Endpoint),
				zap.String("code", string(errors.GetCode(err))),
				zap.Error(err))
		}
	}()
}

// callWithRetry runs the request with a per-attempt timeout, retrying
// retryable failures with exponential backoff. A rate-limit retry hint
// overrides the computed backoff.
func (f *Fetcher) callWithRetry(ctx context.Context, req Request) (interface{}, error) {
	var lastErr error
	delay := f.backoff

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			wait := delay
			if hint, ok := errors.RetryAfter(lastErr); ok {
				wait = hint
			}
			f.log.Debug("retrying request",
				zap.String("endpoint", req.Endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, errors.Wrap(ctx.Err(), errors.CodeTimeout, "request timed out")
			case <-timer.C:
			}
			delay *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		val, err := req.Call(attemptCtx)
		cancel()

		if err == nil {
			return val, nil
		}

		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(err, errors.CodeTimeout, "request timed out")
		}
		lastErr = err

		if !errors.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}
