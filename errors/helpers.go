package errors

import (
	stderrors "errors"
	"net/http"
	"time"
)

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard library errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// GetCode extracts the ErrorCode from an error.
// Returns CodeUnknown if the error is nil or not a CodedError.
//
// Example:
//
//	if errors.GetCode(err) == errors.CodeRateLimit {
//	    // back off
//	}
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.Code()
	}

	return CodeUnknown
}

// GetClassification extracts the ErrorClassification from an error.
// Returns ClassificationPermanent if the error is nil or not a CodedError.
// This is a safe default that prevents inappropriate retry attempts.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.Classification()
	}

	return ClassificationPermanent
}

// IsRetryable returns true if the error is classified as retryable.
// Returns false if the error is nil or not a CodedError (safe default).
//
// This is the primary function for making retry decisions in the fetch layer.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}

// RetryAfter extracts the retry hint from an error, typically populated from
// a provider Retry-After header. Returns false if none is attached.
func RetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.RetryAfter()
	}

	return 0, false
}

// UserMessage converts an error into a string suitable for display alongside
// stale data. CodedError messages are used as-is; other errors fall back to
// Error(). Returns the empty string for nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.Message()
	}

	return err.Error()
}

// CodeForHTTPStatus maps an HTTP status code to an ErrorCode. Rate-limit
// responses (429) are distinguished from auth failures and generic 5xx so
// callers can decide whether to retry or back off.
func CodeForHTTPStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidInput
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return CodeNetwork
	default:
		if status >= 500 {
			return CodeNetwork
		}
		return CodeInternal
	}
}
