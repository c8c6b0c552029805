package github

import "time"

// RepositoryData contains repository information from the provider.
type RepositoryData struct {
	// Identification
	ID       int64  `json:"id"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`

	// Metadata
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Language      string `json:"language"`
	Private       bool   `json:"private"`
	Fork          bool   `json:"fork"`
	Archived      bool   `json:"archived"`

	// Activity counters shown on the dashboard
	StargazersCount int `json:"stargazers_count"`
	ForksCount      int `json:"forks_count"`
	OpenIssuesCount int `json:"open_issues_count"`

	// URL
	HTMLURL string `json:"html_url"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	PushedAt  time.Time `json:"pushed_at"`
}

// PullRequestData contains pull request information from the provider.
type PullRequestData struct {
	// Identification
	Number int `json:"number"`

	// Content
	Title string `json:"title"`

	// Branch information
	HeadRef string `json:"head_ref"`
	BaseRef string `json:"base_ref"`

	// State and metadata
	State  string   `json:"state"`
	Author string   `json:"author"`
	Labels []string `json:"labels"`
	Draft  bool     `json:"draft"`
	Merged bool     `json:"merged"`

	// URL
	HTMLURL string `json:"html_url"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// IssueData contains issue information from the provider.
type IssueData struct {
	// Identification
	Number int `json:"number"`

	// Content
	Title string `json:"title"`

	// State and metadata
	State     string   `json:"state"`
	Author    string   `json:"author"`
	Labels    []string `json:"labels"`
	Assignees []string `json:"assignees"`

	// URL
	HTMLURL string `json:"html_url"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// UserData contains user profile information from the provider.
type UserData struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`

	Followers   int `json:"followers"`
	Following   int `json:"following"`
	PublicRepos int `json:"public_repos"`

	CreatedAt time.Time `json:"created_at"`
}

// ContributorData contains per-contributor activity for a repository.
type ContributorData struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	HTMLURL       string `json:"html_url"`
	Contributions int    `json:"contributions"`
}

// EventData is one item of a repository activity feed.
type EventData struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Actor     string    `json:"actor"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
}

// Pull request states accepted by list filters.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// ListOptions contains pagination options common to list operations.
type ListOptions struct {
	// Page of results to retrieve (1-based).
	Page int

	// PerPage is the number of results per page (max 100).
	PerPage int
}

// ListPullRequestsOptions contains filtering options for listing pull requests.
type ListPullRequestsOptions struct {
	// State filters by state: "open", "closed", or "all".
	State string

	// Base filters by base branch name.
	Base string

	ListOptions
}

// ListIssuesOptions contains filtering options for listing issues.
type ListIssuesOptions struct {
	// State filters by state: "open", "closed", or "all".
	State string

	// Labels filters to issues carrying all of the given labels.
	Labels []string

	ListOptions
}
