package errors

import (
	"encoding/json"
)

// ErrorResponse is the flat, serializable representation of an error handed
// to consumers. The wrapped error chain is intentionally excluded to prevent
// information leakage while keeping code, message, and context available.
type ErrorResponse struct {
	// Code is the error code identifying the type of error.
	Code string `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Classification indicates whether the error is retryable or permanent.
	Classification string `json:"classification"`

	// RetryAfterSeconds is the provider-supplied retry hint, if any.
	// Omitted from JSON when absent.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"`

	// Context contains optional metadata about the error.
	// Omitted from JSON if empty.
	Context map[string]interface{} `json:"context,omitempty"`
}

// ToJSON converts any error to an ErrorResponse suitable for JSON serialization.
// Returns nil if err is nil.
//
// For CodedError instances, extracts code, message, classification, retry
// hint, and context. For standard errors, uses CodeUnknown,
// ClassificationPermanent, and the error message.
func ToJSON(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	code := GetCode(err)
	classification := GetClassification(err)

	message := err.Error()
	var context map[string]interface{}
	var retrySeconds int

	var coded CodedError
	if As(err, &coded) {
		message = coded.Message()
		context = coded.Context()
		if d, ok := coded.RetryAfter(); ok {
			retrySeconds = int(d.Seconds())
		}
	}

	return &ErrorResponse{
		Code:              string(code),
		Message:           message,
		Classification:    string(classification),
		RetryAfterSeconds: retrySeconds,
		Context:           context,
	}
}

// MarshalJSON implements json.Marshaler for codedError, so CodedError values
// can be marshaled directly with json.Marshal without calling ToJSON.
func (e *codedError) MarshalJSON() ([]byte, error) {
	response := &ErrorResponse{
		Code:           string(e.code),
		Message:        e.message,
		Classification: string(e.classification),
		Context:        e.context,
	}
	if e.hasRetryAfter {
		response.RetryAfterSeconds = int(e.retryAfter.Seconds())
	}
	data, err := json.Marshal(response)
	if err != nil {
		return nil, &codedError{
			code:           CodeInternal,
			classification: ClassificationPermanent,
			message:        "failed to marshal error response",
			cause:          err,
		}
	}
	return data, nil
}
