package errors

import "fmt"

// New creates a new CodedError with the given code and message.
// The error classification is determined by the error code using default mappings.
//
// Example:
//
//	err := errors.New(errors.CodeNotFound, "repository not found")
func New(code ErrorCode, message string) CodedError {
	return &codedError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates a new CodedError with a formatted message.
// The error classification is determined by the error code using default mappings.
//
// Example:
//
//	err := errors.Newf(errors.CodeInvalidInput, "invalid repository name: %q", name)
func Newf(code ErrorCode, format string, args ...interface{}) CodedError {
	return &codedError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        fmt.Sprintf(format, args...),
	}
}
