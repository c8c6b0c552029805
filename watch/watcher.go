// Package watch binds a parameterized fetch to a UI subscriber. A Watcher
// owns one logical view of remote data: it refetches when parameters change,
// exposes loading and error state, and keeps previously loaded data visible
// while a refresh is failing.
package watch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bdougie/contributor.info-sub015/cache"
	"github.com/bdougie/contributor.info-sub015/errors"
	"github.com/bdougie/contributor.info-sub015/fetch"
)

// State is the view-facing snapshot of a watched fetch.
type State struct {
	// Data is the most recently loaded value. It survives failed refreshes so
	// consumers can keep rendering the last good data next to the error.
	Data interface{}

	// Loading reports that a fetch is in flight.
	Loading bool

	// Err is the display-safe message of the last failure, empty on success.
	Err string

	// Stale reports that Data is past its TTL and being refreshed in the
	// background.
	Stale bool
}

// Subscriber receives every state change. It is called from the watcher's
// goroutines and must not block; reentrant calls into the Watcher deadlock.
type Subscriber func(State)

// BuildFunc constructs the request for the current parameters.
type BuildFunc func(params map[string]interface{}) fetch.Request

// Watcher drives one subscription. All methods are safe for concurrent use.
//
// Results are delivered under a generation counter: changing parameters or
// closing the watcher abandons delivery of older in-flight results, while the
// underlying shared call still completes and populates the cache.
type Watcher struct {
	fetcher *fetch.Fetcher
	build   BuildFunc
	notify  Subscriber
	log     *zap.Logger

	mu     sync.Mutex
	gen    uint64
	params map[string]interface{}
	state  State
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWatcher creates a watcher that fetches through fetcher, building
// requests with build and delivering state changes to notify.
func NewWatcher(fetcher *fetch.Fetcher, build BuildFunc, notify Subscriber, opts ...Option) *Watcher {
	w := &Watcher{
		fetcher: fetcher,
		build:   build,
		notify:  notify,
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins watching with the given parameters and triggers the first
// fetch.
func (w *Watcher) Start(ctx context.Context, params map[string]interface{}) {
	w.SetParams(ctx, params)
}

// SetParams switches the watcher to new parameters and refetches. Results of
// any fetch started under the old parameters are no longer delivered.
func (w *Watcher) SetParams(ctx context.Context, params map[string]interface{}) {
	w.mu.Lock()
	w.params = cloneParams(params)
	w.mu.Unlock()

	w.kick(ctx, false)
}

// Refetch discards the cached value for the current parameters and fetches
// fresh data.
func (w *Watcher) Refetch(ctx context.Context) {
	w.kick(ctx, true)
}

// ClearCache drops the cached value for the current parameters without
// fetching. The next read misses and goes to the network.
func (w *Watcher) ClearCache() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	req := w.build(cloneParams(w.params))
	w.mu.Unlock()

	w.fetcher.Store().Invalidate(cache.Fingerprint(req.Endpoint, req.Params))
}

// State returns the current snapshot.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Close stops delivery permanently. In-flight fetches complete and populate
// the cache but never reach the subscriber.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.gen++
}

// kick starts a fetch for the current parameters under a fresh generation.
func (w *Watcher) kick(ctx context.Context, invalidate bool) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.gen++
	gen := w.gen
	req := w.build(cloneParams(w.params))

	st := w.state
	st.Loading = true
	w.state = st
	notify := w.notify
	w.mu.Unlock()

	if notify != nil {
		notify(st)
	}

	if invalidate {
		w.fetcher.Store().Invalidate(cache.Fingerprint(req.Endpoint, req.Params))
	}

	go func() {
		res, err := w.fetcher.Do(ctx, req)
		w.deliver(gen, res, err)
	}()
}

// deliver applies a fetch outcome if the watcher is still on the same
// generation. Stale results from superseded parameters are dropped.
func (w *Watcher) deliver(gen uint64, res *fetch.Result, err error) {
	w.mu.Lock()
	if w.closed || gen != w.gen {
		w.mu.Unlock()
		return
	}

	st := w.state
	st.Loading = false
	if err != nil {
		st.Err = errors.UserMessage(err)
		w.log.Warn("watched fetch failed",
			zap.String("code", string(errors.GetCode(err))),
			zap.Error(err))
	} else {
		st.Data = res.Data
		st.Err = ""
		st.Stale = res.Stale
	}
	w.state = st
	notify := w.notify
	w.mu.Unlock()

	if notify != nil {
		notify(st)
	}
}

func cloneParams(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
