package github

import "context"

// Provider defines the interface for reading data from GitHub.
// The SDK implementation lives in providers/sdk; tests substitute fakes.
//
// The provider abstracts the underlying API implementation so the cache and
// fetch layers never see transport details. All methods accept a
// context.Context for cancellation and timeout control and return structured
// data types independent of the underlying SDK.
//
// Errors returned by implementations carry structured codes: ErrNotFound for
// missing resources, auth codes for 401/403, a rate-limit code (with a
// retry-after hint when the API supplies one) for 403/429 rate limiting, and
// network codes for transport failures and 5xx responses.
type Provider interface {
	// GetRepository retrieves repository metadata.
	GetRepository(ctx context.Context, owner, repo string) (*RepositoryData, error)

	// GetUser retrieves a user's profile by login.
	GetUser(ctx context.Context, login string) (*UserData, error)

	// ListPullRequests lists pull requests for a repository with optional
	// filtering. Returns an empty slice if none match.
	ListPullRequests(ctx context.Context, owner, repo string, opts ListPullRequestsOptions) ([]*PullRequestData, error)

	// ListIssues lists issues for a repository with optional filtering.
	// Pull requests are excluded even though the underlying API mixes them in.
	ListIssues(ctx context.Context, owner, repo string, opts ListIssuesOptions) ([]*IssueData, error)

	// ListContributors lists contributors for a repository ordered by
	// contribution count.
	ListContributors(ctx context.Context, owner, repo string, opts ListOptions) ([]*ContributorData, error)

	// ListRepositoryEvents lists recent activity events for a repository.
	ListRepositoryEvents(ctx context.Context, owner, repo string, opts ListOptions) ([]*EventData, error)
}
