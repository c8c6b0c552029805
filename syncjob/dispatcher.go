package syncjob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/bdougie/contributor.info-sub015/errors"
)

// Dispatcher starts a sync job for a repository and returns its job ID.
type Dispatcher interface {
	Trigger(ctx context.Context, owner, repo string) (string, error)
}

// StatusSource reports the current status of a previously triggered job.
type StatusSource interface {
	Status(ctx context.Context, jobID string) (*JobStatus, error)
}

// triggerRequest is the body posted to the sync endpoint. RequestID makes the
// trigger idempotent: the backend collapses duplicate submissions.
type triggerRequest struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	RequestID string `json:"request_id"`
}

type triggerResponse struct {
	JobID string `json:"job_id"`
}

// HTTPDispatcher triggers and polls sync jobs over the backend's HTTP API.
// It implements both Dispatcher and StatusSource.
type HTTPDispatcher struct {
	baseURL string
	client  *http.Client
}

// DispatcherOption configures an HTTPDispatcher.
type DispatcherOption func(*HTTPDispatcher)

// WithHTTPClient replaces the default retrying HTTP client.
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *HTTPDispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// NewHTTPDispatcher creates a dispatcher for the sync API at baseURL
// (e.g. "https://api.example.com"). Transport failures and 5xx responses are
// retried at the HTTP layer; 429 responses are surfaced immediately so the
// caller can honor the Retry-After hint instead of hammering the backend.
func NewHTTPDispatcher(baseURL string, opts ...DispatcherOption) (*HTTPDispatcher, error) {
	if baseURL == "" {
		err := errors.New(errors.CodeInvalidConfig, "sync API base URL must not be empty")
		return nil, errors.WithContext(err, "field", "baseURL")
	}

	d := &HTTPDispatcher{
		baseURL: baseURL,
		client:  defaultHTTPClient(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

func defaultHTTPClient() *http.Client {
	r := retryablehttp.NewClient()
	r.RetryMax = 2
	r.Logger = nil
	r.HTTPClient.Timeout = 15 * time.Second
	r.CheckRetry = noRetryOn429
	return r.StandardClient()
}

// noRetryOn429 surfaces rate-limit responses instead of retrying them inside
// the transport, so the caller sees the Retry-After hint on the first 429.
func noRetryOn429(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Trigger starts a sync job for owner/repo and returns the backend's job ID.
//
// A 429 response maps to a rate-limit error carrying the Retry-After hint;
// the caller must not begin polling in that case.
func (d *HTTPDispatcher) Trigger(ctx context.Context, owner, repo string) (string, error) {
	body, err := json.Marshal(triggerRequest{
		Owner:     owner,
		Repo:      repo,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to encode trigger request")
	}

	url := fmt.Sprintf("%s/api/sync", d.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build trigger request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeNetwork, "sync trigger failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", d.statusError(resp, "sync trigger rejected")
	}

	var out triggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, errors.CodeBackend, "failed to decode trigger response")
	}
	if out.JobID == "" {
		return "", errors.New(errors.CodeBackend, "trigger response missing job ID")
	}

	return out.JobID, nil
}

// Status fetches the current status of a job.
func (d *HTTPDispatcher) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	if jobID == "" {
		return nil, errors.New(errors.CodeInvalidInput, "job ID must not be empty")
	}

	url := fmt.Sprintf("%s/api/sync/%s", d.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build status request")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "sync status check failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, d.statusError(resp, "sync status check rejected")
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, errors.Wrap(err, errors.CodeBackend, "failed to decode status response")
	}

	return &status, nil
}

// statusError converts a non-success HTTP response into a structured error,
// attaching the Retry-After hint on rate-limit responses.
func (d *HTTPDispatcher) statusError(resp *http.Response, message string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	err := errors.New(
		errors.CodeForHTTPStatus(resp.StatusCode),
		fmt.Sprintf("%s: status %d", message, resp.StatusCode),
	)
	err = errors.WithContext(err, "status_code", strconv.Itoa(resp.StatusCode))
	if len(body) > 0 {
		err = errors.WithContext(err, "body", string(body))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
			err = errors.WithRetryAfter(err, time.Duration(secs)*time.Second)
		}
	}

	return err
}
