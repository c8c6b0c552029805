package errors

import (
	"errors"
	"fmt"
	"time"
)

// Wrap wraps an error with additional context while preserving the original error.
// The wrapped error is accessible via Unwrap() and compatible with errors.Is
// and errors.As.
//
// If the wrapped error is a CodedError, its classification and retry hint are
// preserved. Otherwise, the default classification for the error code is used.
//
// Returns nil if err is nil.
//
// Example:
//
//	prs, err := provider.ListPullRequests(ctx, owner, repo, opts)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeNetwork, "failed to list pull requests")
//	}
func Wrap(err error, code ErrorCode, message string) CodedError {
	if err == nil {
		return nil
	}

	classification := getDefaultClassification(code)
	var retryAfter time.Duration
	var hasRetryAfter bool

	var coded CodedError
	if errors.As(err, &coded) {
		classification = coded.Classification()
		retryAfter, hasRetryAfter = coded.RetryAfter()
	}

	return &codedError{
		code:           code,
		classification: classification,
		message:        message,
		retryAfter:     retryAfter,
		hasRetryAfter:  hasRetryAfter,
		cause:          err,
	}
}

// Wrapf wraps an error with a formatted message while preserving the original error.
//
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) CodedError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithContext adds a single context field to an error.
// Returns a new CodedError with the context field added.
// Existing context fields are preserved.
//
// If err is not a CodedError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
//
// Example:
//
//	err := errors.New(errors.CodeRateLimit, "rate limit exceeded")
//	err = errors.WithContext(err, "endpoint", "repos/owner/repo/pulls")
func WithContext(err error, key string, value interface{}) CodedError {
	if err == nil {
		return nil
	}

	coded := asCoded(err)

	newContext := make(map[string]interface{})
	for k, v := range coded.context {
		newContext[k] = v
	}
	newContext[key] = value

	out := *coded
	out.context = newContext
	return &out
}

// WithRetryAfter attaches a retry hint to an error. The hint is carried
// through subsequent Wrap calls so callers deciding backoff can read it from
// the outermost error.
//
// Example:
//
//	err := errors.New(errors.CodeRateLimit, "rate limit exceeded")
//	err = errors.WithRetryAfter(err, 60*time.Second)
func WithRetryAfter(err error, d time.Duration) CodedError {
	if err == nil {
		return nil
	}

	out := *asCoded(err)
	out.retryAfter = d
	out.hasRetryAfter = true
	return &out
}

// WithClassification overrides the classification of an error.
// Useful when a normally permanent code should be retried in a specific
// circumstance, or vice versa.
//
// Returns nil if err is nil.
func WithClassification(err error, classification ErrorClassification) CodedError {
	if err == nil {
		return nil
	}

	out := *asCoded(err)
	out.classification = classification
	return &out
}

// asCoded converts any error to a *codedError, wrapping non-coded errors
// with CodeUnknown. The returned value is safe to copy and mutate.
func asCoded(err error) *codedError {
	var coded CodedError
	if !errors.As(err, &coded) {
		return &codedError{
			code:           CodeUnknown,
			classification: ClassificationPermanent,
			message:        err.Error(),
			cause:          err,
		}
	}

	retryAfter, hasRetryAfter := coded.RetryAfter()
	return &codedError{
		code:           coded.Code(),
		classification: coded.Classification(),
		message:        coded.Message(),
		context:        coded.Context(),
		retryAfter:     retryAfter,
		hasRetryAfter:  hasRetryAfter,
		cause:          coded.Unwrap(),
	}
}
