package syncjob

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bdougie/contributor.info-sub015/errors"
)

const (
	// DefaultPollInterval is how often a running job's status is checked.
	DefaultPollInterval = 2 * time.Second

	// DefaultSettleDelay is the pause between a job completing and the cache
	// invalidation, giving backend read replicas time to catch up.
	DefaultSettleDelay = 2 * time.Second

	// DefaultMaxWait bounds a single Run: trigger plus polling. A job still
	// running past this is reported as a timeout and polling stops.
	DefaultMaxWait = 5 * time.Minute
)

// InvalidateFunc is called exactly once after a job completes successfully
// and the settle delay has elapsed.
type InvalidateFunc func(owner, repo string)

// Poller drives one sync job at a time: trigger, poll until terminal, then
// invalidate. It is safe for concurrent use, but overlapping Run calls are
// rejected so a repository is never synced twice at once.
type Poller struct {
	dispatcher  Dispatcher
	source      StatusSource
	interval    time.Duration
	settleDelay time.Duration
	maxWait     time.Duration
	onComplete  InvalidateFunc
	log         *zap.Logger

	running atomic.Bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollInterval sets the status check interval.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithSettleDelay sets the pause between completion and invalidation.
// Zero disables the delay.
func WithSettleDelay(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d >= 0 {
			p.settleDelay = d
		}
	}
}

// WithMaxWait caps the total duration of a Run.
func WithMaxWait(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.maxWait = d
		}
	}
}

// WithInvalidate sets the invalidation callback fired after a successful sync.
func WithInvalidate(fn InvalidateFunc) PollerOption {
	return func(p *Poller) {
		p.onComplete = fn
	}
}

// WithPollerLogger sets the logger. The default is a no-op logger.
func WithPollerLogger(log *zap.Logger) PollerOption {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPoller creates a poller over the given dispatcher and status source.
// These are usually the same *HTTPDispatcher.
func NewPoller(dispatcher Dispatcher, source StatusSource, opts ...PollerOption) *Poller {
	p := &Poller{
		dispatcher:  dispatcher,
		source:      source,
		interval:    DefaultPollInterval,
		settleDelay: DefaultSettleDelay,
		maxWait:     DefaultMaxWait,
		log:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Running reports whether a sync is currently in flight.
func (p *Poller) Running() bool {
	return p.running.Load()
}

// Run triggers a sync job for owner/repo and polls it to a terminal state.
//
// On completion it waits the settle delay, fires the invalidation callback
// exactly once, and returns the final status. A failed job returns its final
// status alongside a backend error carrying the job's failure message.
//
// A rate-limited trigger returns a rate-limit error with the backend's
// Retry-After hint and never starts polling. Cancelling ctx stops polling;
// the backend job itself keeps running.
func (p *Poller) Run(ctx context.Context, owner, repo string) (*JobStatus, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, errors.New(errors.CodeInvalidInput, "a sync is already in progress")
	}
	defer p.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, p.maxWait)
	defer cancel()

	jobID, err := p.dispatcher.Trigger(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	p.log.Info("sync job triggered",
		zap.String("job_id", jobID),
		zap.String("owner", owner),
		zap.String("repo", repo))

	status, err := p.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if status.State == StateFailed {
		jobErr := errors.Newf(errors.CodeBackend, "sync job failed: %s", status.ErrorMessage)
		return status, errors.WithContext(jobErr, "job_id", jobID)
	}

	if p.settleDelay > 0 {
		timer := time.NewTimer(p.settleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return status, p.wrapCtxErr(ctx.Err())
		case <-timer.C:
		}
	}

	if p.onComplete != nil {
		p.onComplete(owner, repo)
	}

	p.log.Info("sync job completed",
		zap.String("job_id", jobID),
		zap.String("owner", owner),
		zap.String("repo", repo))

	return status, nil
}

// poll checks the job status on every tick until the job reaches a terminal
// state. Transient status-check failures are logged and polling continues;
// permanent failures abort the run.
func (p *Poller) poll(ctx context.Context, jobID string) (*JobStatus, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, p.wrapCtxErr(ctx.Err())
		case <-ticker.C:
		}

		status, err := p.source.Status(ctx, jobID)
		if err != nil {
			if errors.IsRetryable(err) {
				p.log.Warn("sync status check failed, will retry",
					zap.String("job_id", jobID),
					zap.Error(err))
				continue
			}
			return nil, err
		}

		if status.State.Terminal() {
			return status, nil
		}
	}
}

func (p *Poller) wrapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodeTimeout, "sync did not finish in time")
	}
	return errors.Wrap(err, errors.CodeInternal, "sync polling canceled")
}
