package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/bdougie/contributor.info-sub015/cache"
	"github.com/bdougie/contributor.info-sub015/fetch"
	"github.com/bdougie/contributor.info-sub015/staleness"
)

// Client is the consumer-facing entry point for GitHub data. Every read goes
// through the request wrapper: fresh cache hits are served immediately,
// concurrent identical reads share one network call, and each data category
// refreshes on its own TTL.
//
// Example usage:
//
//	provider, err := sdk.NewSDKProvider(sdk.WithToken("ghp_..."))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := github.NewClient(provider, fetcher)
//	repo, meta, err := client.GetRepository(ctx, "owner", "repo")
type Client struct {
	provider Provider
	fetcher  *fetch.Fetcher
}

// NewClient creates a client reading through the given provider and fetcher.
func NewClient(provider Provider, fetcher *fetch.Fetcher) *Client {
	return &Client{
		provider: provider,
		fetcher:  fetcher,
	}
}

// Provider returns the underlying Provider. This is an escape hatch for
// uncached reads; prefer the Client methods.
func (c *Client) Provider() Provider {
	return c.provider
}

// Fetcher returns the request wrapper used by this client.
func (c *Client) Fetcher() *fetch.Fetcher {
	return c.fetcher
}

// RequestOption configures a single read.
type RequestOption func(*requestConfig)

type requestConfig struct {
	mode staleness.RefreshMode
}

// WithStaleWhileRevalidate serves a stale cached value immediately and
// refreshes it in the background instead of blocking on a refetch.
func WithStaleWhileRevalidate() RequestOption {
	return func(cfg *requestConfig) {
		cfg.mode = staleness.RefreshStaleWhileRevalidate
	}
}

func buildConfig(opts []RequestOption) requestConfig {
	var cfg requestConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// GetRepository retrieves repository metadata through the cache.
//
// Private repositories surface a permission error ("Private repository") and
// are never cached, so a later permission grant is picked up immediately.
func (c *Client) GetRepository(ctx context.Context, owner, repo string, opts ...RequestOption) (*RepositoryData, *fetch.Result, error) {
	if err := validateOwnerRepo(owner, repo); err != nil {
		return nil, nil, err
	}
	cfg := buildConfig(opts)

	res, err := c.fetcher.Do(ctx, fetch.Request{
		Endpoint: fmt.Sprintf("repos/%s/%s", owner, repo),
		Category: staleness.CategoryRepository,
		Mode:     cfg.mode,
		Call: func(ctx context.Context) (interface{}, error) {
			data, err := c.provider.GetRepository(ctx, owner, repo)
			if err != nil {
				return nil, err
			}
			if data.Private {
				return nil, NewPrivateRepositoryError(owner, repo)
			}
			return data, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return res.Data.(*RepositoryData), res, nil
}

// GetUser retrieves a user profile through the cache.
func (c *Client) GetUser(ctx context.Context, login string, opts ...RequestOption) (*UserData, *fetch.Result, error) {
	if login == "" {
		return nil, nil, newInvalidInputError("login", "must not be empty")
	}
	cfg := buildConfig(opts)

	res, err := c.fetcher.Do(ctx, fetch.Request{
		Endpoint: fmt.Sprintf("users/%s", login),
		Category: staleness.CategoryUserProfile,
		Mode:     cfg.mode,
		Call: func(ctx context.Context) (interface{}, error) {
			return c.provider.GetUser(ctx, login)
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return res.Data.(*UserData), res, nil
}

// ListPullRequests lists pull requests through the cache. Distinct filter and
// pagination values are cached independently.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, listOpts ListPullRequestsOptions, opts ...RequestOption) ([]*PullRequestData, *fetch.Result, error) {
	if err := validateOwnerRepo(owner, repo); err != nil {
		return nil, nil, err
	}
	cfg := buildConfig(opts)

	params := map[string]interface{}{}
	if listOpts.State != "" {
		params["state"] = listOpts.State
	}
	if listOpts.Base != "" {
		params["base"] = listOpts.Base
	}
	addPagination(params, listOpts.ListOptions)

	res, err := c.fetcher.Do(ctx, fetch.Request{
		Endpoint: fmt.Sprintf("repos/%s/%s/pulls", owner, repo),
		Params:   params,
		Category: staleness.CategoryPullRequests,
		Mode:     cfg.mode,
		Call: func(ctx context.Context) (interface{}, error) {
			return c.provider.ListPullRequests(ctx, owner, repo, listOpts)
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return res.Data.([]*PullRequestData), res, nil
}

// ListIssues lists issues through the cache.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, listOpts ListIssuesOptions, opts ...RequestOption) ([]*IssueData, *fetch.Result, error) {
	if err := validateOwnerRepo(owner, repo); err != nil {
		return nil, nil, err
	}
	cfg := buildConfig(opts)

	params := map[string]interface{}{}
	if listOpts.State != "" {
		params["state"] = listOpts.State
	}
	if len(listOpts.Labels) > 0 {
		params["labels"] = listOpts.Labels
	}
	addPagination(params, listOpts.ListOptions)

	res, err := c.fetcher.Do(ctx, fetch.Request{
		Endpoint: fmt.Sprintf("repos/%s/%s/issues", owner, repo),
		Params:   params,
		Category: staleness.CategoryPullRequests,
		Mode:     cfg.mode,
		Call: func(ctx context.Context) (interface{}, error) {
			return c.provider.ListIssues(ctx, owner, repo, listOpts)
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return res.Data.([]*IssueData), res, nil
}

// ListContributors lists repository contributors through the cache.
func (c *Client) ListContributors(ctx context.Context, owner, repo string, listOpts ListOptions, opts ...RequestOption) ([]*ContributorData, *fetch.Result, error) {
	if err := validateOwnerRepo(owner, repo); err != nil {
		return nil, nil, err
	}
	cfg := buildConfig(opts)

	params := map[string]interface{}{}
	addPagination(params, listOpts)

	res, err := c.fetcher.Do(ctx, fetch.Request{
		Endpoint: fmt.Sprintf("repos/%s/%s/contributors", owner, repo),
		Params:   params,
		Category: staleness.CategoryUserProfile,
		Mode:     cfg.mode,
		Call: func(ctx context.Context) (interface{}, error) {
			return c.provider.ListContributors(ctx, owner, repo, listOpts)
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return res.Data.([]*ContributorData), res, nil
}

// ListRepositoryEvents lists the recent activity feed through the cache.
// Events use the shortest TTL of any category.
func (c *Client) ListRepositoryEvents(ctx context.Context, owner, repo string, listOpts ListOptions, opts ...RequestOption) ([]*EventData, *fetch.Result, error) {
	if err := validateOwnerRepo(owner, repo); err != nil {
		return nil, nil, err
	}
	cfg := buildConfig(opts)

	params := map[string]interface{}{}
	addPagination(params, listOpts)

	res, err := c.fetcher.Do(ctx, fetch.Request{
		Endpoint: fmt.Sprintf("repos/%s/%s/events", owner, repo),
		Params:   params,
		Category: staleness.CategoryEvents,
		Mode:     cfg.mode,
		Call: func(ctx context.Context) (interface{}, error) {
			return c.provider.ListRepositoryEvents(ctx, owner, repo, listOpts)
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return res.Data.([]*EventData), res, nil
}

// InvalidateRepository removes every cached response for a repository:
// metadata, pull requests, issues, contributors, and events. Returns the
// number of entries removed. The sync poller calls this after a sync job
// completes.
func (c *Client) InvalidateRepository(owner, repo string) int {
	return c.fetcher.Store().InvalidatePrefix(fmt.Sprintf("repos/%s/%s", owner, repo))
}

// InvalidateUser removes the cached profile for a user.
func (c *Client) InvalidateUser(login string) {
	c.fetcher.Store().Invalidate(fmt.Sprintf("users/%s", login))
}

// CacheStats reports hit/miss counters for the underlying store.
func (c *Client) CacheStats() cache.Stats {
	return c.fetcher.Store().Stats()
}

func validateOwnerRepo(owner, repo string) error {
	if owner == "" || strings.Contains(owner, "/") {
		return newInvalidInputError("owner", "must be a non-empty name without slashes")
	}
	if repo == "" || strings.Contains(repo, "/") {
		return newInvalidInputError("repo", "must be a non-empty name without slashes")
	}
	return nil
}

func addPagination(params map[string]interface{}, opts ListOptions) {
	if opts.Page > 0 {
		params["page"] = opts.Page
	}
	if opts.PerPage > 0 {
		params["per_page"] = opts.PerPage
	}
}
