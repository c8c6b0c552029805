package fetch

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the client-side cap on a single network attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultRetries is the number of additional attempts for retryable
	// failures. Permanent failures are never retried.
	DefaultRetries = 2

	// DefaultBackoff is the initial delay before the first retry; it doubles
	// per attempt unless the error carries a retry-after hint.
	DefaultBackoff = 500 * time.Millisecond
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-attempt client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRetries sets the number of retries for retryable failures.
// Zero disables retrying.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithBackoff sets the initial retry backoff.
func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.backoff = d
		}
	}
}

// WithLogger sets the logger for retry and background-refresh reporting.
// The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}
