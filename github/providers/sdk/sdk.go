// Package sdk provides a GitHub provider implementation using the go-github SDK.
//
// This package implements the github.Provider interface by wrapping the
// github.com/google/go-github/v67 SDK. Transport-level retries use
// hashicorp/go-retryablehttp; rate-limit responses are converted to
// structured errors carrying a retry-after hint.
package sdk

import (
	"context"
	"net/http"
	"time"

	"github.com/google/go-github/v67/github"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/bdougie/contributor.info-sub015/errors"
	gh "github.com/bdougie/contributor.info-sub015/github"
)

// SDKProvider implements github.Provider using the go-github SDK.
type SDKProvider struct {
	client *github.Client
}

// NewSDKProvider creates a provider using the GitHub SDK.
//
// Example with token authentication:
//
//	provider, err := sdk.NewSDKProvider(sdk.WithToken("ghp_..."))
//
// Example with custom client (tests point BaseURL at an httptest server):
//
//	provider, err := sdk.NewSDKProvider(sdk.WithClient(ghClient))
func NewSDKProvider(opts ...Option) (*SDKProvider, error) {
	cfg := &config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.client == nil {
		if cfg.token == "" {
			err := errors.New(errors.CodeInvalidConfig, "either token or client must be provided")
			return nil, errors.WithContext(err, "field", "token or client")
		}
		cfg.client = github.NewClient(defaultHTTPClient()).WithAuthToken(cfg.token)
	}

	return &SDKProvider{
		client: cfg.client,
	}, nil
}

// defaultHTTPClient builds the transport used when no custom client is
// supplied: retryable HTTP with a conservative retry budget, since the fetch
// layer applies its own classification-based retries above this.
func defaultHTTPClient() *http.Client {
	r := retryablehttp.NewClient()
	r.RetryMax = 2
	r.Logger = nil
	r.HTTPClient.Timeout = 30 * time.Second
	r.CheckRetry = noRetryOn429
	return r.StandardClient()
}

// noRetryOn429 keeps secondary rate limits (HTTP 429) out of the transport's
// retry loop so the SDK can classify them and carry the Retry-After hint.
func noRetryOn429(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// config holds configuration for SDKProvider.
type config struct {
	client *github.Client
	token  string
}

// Option configures the SDK provider.
type Option func(*config) error

// WithToken sets the authentication token for the SDK provider.
func WithToken(token string) Option {
	return func(cfg *config) error {
		if token == "" {
			err := errors.New(errors.CodeInvalidConfig, "token cannot be empty")
			return errors.WithContext(err, "field", "token")
		}
		cfg.token = token
		return nil
	}
}

// WithClient sets a custom GitHub client for the SDK provider.
// This allows full control over the HTTP client configuration,
// authentication, and base URL.
func WithClient(client *github.Client) Option {
	return func(cfg *config) error {
		if client == nil {
			err := errors.New(errors.CodeInvalidConfig, "client cannot be nil")
			return errors.WithContext(err, "field", "client")
		}
		cfg.client = client
		return nil
	}
}

// GetRepository retrieves repository metadata.
func (s *SDKProvider) GetRepository(ctx context.Context, owner, repo string) (*gh.RepositoryData, error) {
	ghRepo, resp, err := s.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to get repository")
	}

	return s.convertRepository(ghRepo), nil
}

// GetUser retrieves a user profile by login.
func (s *SDKProvider) GetUser(ctx context.Context, login string) (*gh.UserData, error) {
	user, resp, err := s.client.Users.Get(ctx, login)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to get user")
	}

	return s.convertUser(user), nil
}

// ListPullRequests lists pull requests for a repository with optional filtering.
func (s *SDKProvider) ListPullRequests(ctx context.Context, owner, repo string, opts gh.ListPullRequestsOptions) ([]*gh.PullRequestData, error) {
	ghOpts := &github.PullRequestListOptions{
		State: opts.State,
		Base:  opts.Base,
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	}

	prs, resp, err := s.client.PullRequests.List(ctx, owner, repo, ghOpts)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to list pull requests")
	}

	result := make([]*gh.PullRequestData, len(prs))
	for i, pr := range prs {
		result[i] = s.convertPullRequest(pr)
	}

	return result, nil
}

// ListIssues lists issues for a repository with optional filtering.
func (s *SDKProvider) ListIssues(ctx context.Context, owner, repo string, opts gh.ListIssuesOptions) ([]*gh.IssueData, error) {
	ghOpts := &github.IssueListByRepoOptions{
		State:  opts.State,
		Labels: opts.Labels,
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	}

	issues, resp, err := s.client.Issues.ListByRepo(ctx, owner, repo, ghOpts)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to list issues")
	}

	// Filter out pull requests (GitHub API returns both issues and PRs)
	result := make([]*gh.IssueData, 0, len(issues))
	for _, issue := range issues {
		if !issue.IsPullRequest() {
			result = append(result, s.convertIssue(issue))
		}
	}

	return result, nil
}

// ListContributors lists contributors for a repository.
func (s *SDKProvider) ListContributors(ctx context.Context, owner, repo string, opts gh.ListOptions) ([]*gh.ContributorData, error) {
	ghOpts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	}

	contributors, resp, err := s.client.Repositories.ListContributors(ctx, owner, repo, ghOpts)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to list contributors")
	}

	result := make([]*gh.ContributorData, len(contributors))
	for i, c := range contributors {
		result[i] = &gh.ContributorData{
			ID:            c.GetID(),
			Login:         c.GetLogin(),
			AvatarURL:     c.GetAvatarURL(),
			HTMLURL:       c.GetHTMLURL(),
			Contributions: c.GetContributions(),
		}
	}

	return result, nil
}

// ListRepositoryEvents lists recent activity events for a repository.
func (s *SDKProvider) ListRepositoryEvents(ctx context.Context, owner, repo string, opts gh.ListOptions) ([]*gh.EventData, error) {
	ghOpts := &github.ListOptions{
		Page:    opts.Page,
		PerPage: opts.PerPage,
	}

	events, resp, err := s.client.Activity.ListRepositoryEvents(ctx, owner, repo, ghOpts)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to list repository events")
	}

	result := make([]*gh.EventData, len(events))
	for i, ev := range events {
		data := &gh.EventData{
			ID:        ev.GetID(),
			Type:      ev.GetType(),
			CreatedAt: ev.GetCreatedAt().Time,
		}
		if actor := ev.GetActor(); actor != nil {
			data.Actor = actor.GetLogin()
		}
		if r := ev.GetRepo(); r != nil {
			data.Repo = r.GetName()
		}
		result[i] = data
	}

	return result, nil
}

// convertRepository converts a go-github Repository to RepositoryData.
func (s *SDKProvider) convertRepository(repo *github.Repository) *gh.RepositoryData {
	if repo == nil {
		return nil
	}

	data := &gh.RepositoryData{
		ID:              repo.GetID(),
		Name:            repo.GetName(),
		FullName:        repo.GetFullName(),
		Description:     repo.GetDescription(),
		DefaultBranch:   repo.GetDefaultBranch(),
		Language:        repo.GetLanguage(),
		Private:         repo.GetPrivate(),
		Fork:            repo.GetFork(),
		Archived:        repo.GetArchived(),
		StargazersCount: repo.GetStargazersCount(),
		ForksCount:      repo.GetForksCount(),
		OpenIssuesCount: repo.GetOpenIssuesCount(),
		HTMLURL:         repo.GetHTMLURL(),
	}

	if owner := repo.GetOwner(); owner != nil {
		data.Owner = owner.GetLogin()
	}

	if createdAt := repo.GetCreatedAt(); !createdAt.IsZero() {
		data.CreatedAt = createdAt.Time
	}
	if updatedAt := repo.GetUpdatedAt(); !updatedAt.IsZero() {
		data.UpdatedAt = updatedAt.Time
	}
	if pushedAt := repo.GetPushedAt(); !pushedAt.IsZero() {
		data.PushedAt = pushedAt.Time
	}

	return data
}

// convertUser converts a go-github User to UserData.
func (s *SDKProvider) convertUser(user *github.User) *gh.UserData {
	if user == nil {
		return nil
	}

	return &gh.UserData{
		ID:          user.GetID(),
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		Company:     user.GetCompany(),
		Location:    user.GetLocation(),
		Bio:         user.GetBio(),
		AvatarURL:   user.GetAvatarURL(),
		HTMLURL:     user.GetHTMLURL(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
		PublicRepos: user.GetPublicRepos(),
		CreatedAt:   user.GetCreatedAt().Time,
	}
}

// convertPullRequest converts a go-github PullRequest to PullRequestData.
func (s *SDKProvider) convertPullRequest(pr *github.PullRequest) *gh.PullRequestData {
	if pr == nil {
		return nil
	}

	data := &gh.PullRequestData{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		Draft:     pr.GetDraft(),
		HTMLURL:   pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}

	if user := pr.GetUser(); user != nil {
		data.Author = user.GetLogin()
	}
	if head := pr.GetHead(); head != nil {
		data.HeadRef = head.GetRef()
	}
	if base := pr.GetBase(); base != nil {
		data.BaseRef = base.GetRef()
	}

	data.Labels = make([]string, 0, len(pr.Labels))
	for _, label := range pr.Labels {
		data.Labels = append(data.Labels, label.GetName())
	}

	// List responses leave Merged unset; MergedAt is authoritative.
	if mergedAt := pr.MergedAt; mergedAt != nil {
		t := mergedAt.Time
		data.MergedAt = &t
		data.Merged = true
	}
	if closedAt := pr.ClosedAt; closedAt != nil {
		t := closedAt.Time
		data.ClosedAt = &t
	}

	return data
}

// convertIssue converts a go-github Issue to IssueData.
func (s *SDKProvider) convertIssue(issue *github.Issue) *gh.IssueData {
	if issue == nil {
		return nil
	}

	data := &gh.IssueData{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		State:     issue.GetState(),
		HTMLURL:   issue.GetHTMLURL(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
	}

	if user := issue.GetUser(); user != nil {
		data.Author = user.GetLogin()
	}

	data.Labels = make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		data.Labels = append(data.Labels, label.GetName())
	}

	data.Assignees = make([]string, 0, len(issue.Assignees))
	for _, assignee := range issue.Assignees {
		data.Assignees = append(data.Assignees, assignee.GetLogin())
	}

	if closedAt := issue.ClosedAt; closedAt != nil {
		t := closedAt.Time
		data.ClosedAt = &t
	}

	return data
}

// wrapError wraps go-github errors with appropriate error codes.
// Rate-limit errors carry a retry-after hint extracted from the SDK.
func (s *SDKProvider) wrapError(err error, resp *github.Response, message string) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		wrapped := errors.Wrap(err, errors.CodeRateLimit, message)
		if wait := time.Until(rateErr.Rate.Reset.Time); wait > 0 {
			return errors.WithRetryAfter(wrapped, wait)
		}
		return wrapped
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		wrapped := errors.Wrap(err, errors.CodeRateLimit, message)
		if after := abuseErr.GetRetryAfter(); after > 0 {
			return errors.WithRetryAfter(wrapped, after)
		}
		return wrapped
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		statusCode = ghErr.Response.StatusCode
	}

	if statusCode != 0 {
		return gh.WrapHTTPError(err, statusCode, message)
	}

	// Fallback to network error for unknown errors
	return errors.Wrap(err, errors.CodeNetwork, message)
}
