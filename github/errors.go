package github

import (
	"fmt"

	"github.com/bdougie/contributor.info-sub015/errors"
)

// GitHub-specific error codes (aliases for readability in GitHub context).
const (
	// ErrCodeNotFound indicates a requested resource was not found.
	ErrCodeNotFound = errors.CodeNotFound

	// ErrCodeAuthenticationFailed indicates authentication failure.
	ErrCodeAuthenticationFailed = errors.CodeUnauthorized

	// ErrCodePermissionDenied indicates insufficient permissions, including
	// private repositories the token cannot read.
	ErrCodePermissionDenied = errors.CodeForbidden

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = errors.CodeRateLimit

	// ErrCodeInvalidInput indicates invalid parameters or malformed data.
	ErrCodeInvalidInput = errors.CodeInvalidInput

	// ErrCodeNetwork indicates network-related errors.
	ErrCodeNetwork = errors.CodeNetwork
)

// WrapHTTPError wraps an error based on the HTTP status code from the GitHub
// API. Rate-limit responses map to ErrCodeRateLimited so callers can back off
// instead of treating them as generic failures.
func WrapHTTPError(err error, statusCode int, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CodeForHTTPStatus(statusCode), message)
}

// NewPrivateRepositoryError reports a repository the current credentials
// cannot read. The message is stable; the dashboard matches on it.
func NewPrivateRepositoryError(owner, repo string) error {
	err := errors.New(errors.CodeForbidden, "Private repository")
	return errors.WithContext(err, "repository", fmt.Sprintf("%s/%s", owner, repo))
}

// newInvalidInputError creates an invalid input error with context.
func newInvalidInputError(field, reason string) error {
	err := errors.Newf(errors.CodeInvalidInput, "invalid %s: %s", field, reason)
	err = errors.WithContext(err, "field", field)
	return err
}
