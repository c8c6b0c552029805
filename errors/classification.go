package errors

// ErrorClassification indicates whether an error should trigger a retry.
// The request wrapper and the sync poller use this to decide between
// retrying with backoff and surfacing the error for manual action.
type ErrorClassification string

const (
	// ClassificationRetryable indicates temporary failures that may succeed on
	// retry. Examples: network timeouts, rate limits, transient backend issues.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent indicates failures that will not succeed on
	// retry. Examples: validation errors, permission denials, missing resources.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification indicates retry should be attempted.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

// defaultClassifications maps error codes to their default classification.
var defaultClassifications = map[ErrorCode]ErrorClassification{
	// Retryable errors (temporary failures)
	CodeNetwork:     ClassificationRetryable,
	CodeTimeout:     ClassificationRetryable,
	CodeRateLimit:   ClassificationRetryable,
	CodeUnavailable: ClassificationRetryable,
	CodeBackend:     ClassificationRetryable, // transient backend issues

	// Permanent errors (require user action)
	CodeNotFound:      ClassificationPermanent,
	CodeUnauthorized:  ClassificationPermanent,
	CodeForbidden:     ClassificationPermanent,
	CodeInvalidInput:  ClassificationPermanent,
	CodeInvalidConfig: ClassificationPermanent,
	CodeInternal:      ClassificationPermanent,
	CodeUnknown:       ClassificationPermanent,
}

// getDefaultClassification returns the default classification for an error code.
// Returns ClassificationPermanent if the code is not in the map (safe default).
func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
