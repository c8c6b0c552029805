package github

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/contributor.info-sub015/cache"
	"github.com/bdougie/contributor.info-sub015/errors"
	"github.com/bdougie/contributor.info-sub015/fetch"
	"github.com/bdougie/contributor.info-sub015/staleness"
)

// fakeProvider counts calls and returns canned data. Tests swap individual
// funcs to exercise error paths.
type fakeProvider struct {
	repoCalls  atomic.Int64
	userCalls  atomic.Int64
	pullCalls  atomic.Int64
	issueCalls atomic.Int64

	repo    *RepositoryData
	repoErr error
}

func (p *fakeProvider) GetRepository(_ context.Context, owner, repo string) (*RepositoryData, error) {
	p.repoCalls.Add(1)
	if p.repoErr != nil {
		return nil, p.repoErr
	}
	if p.repo != nil {
		return p.repo, nil
	}
	return &RepositoryData{Owner: owner, Name: repo, FullName: owner + "/" + repo}, nil
}

func (p *fakeProvider) GetUser(_ context.Context, login string) (*UserData, error) {
	p.userCalls.Add(1)
	return &UserData{Login: login}, nil
}

func (p *fakeProvider) ListPullRequests(_ context.Context, _, _ string, opts ListPullRequestsOptions) ([]*PullRequestData, error) {
	p.pullCalls.Add(1)
	return []*PullRequestData{{Number: 1, State: opts.State}}, nil
}

func (p *fakeProvider) ListIssues(_ context.Context, _, _ string, _ ListIssuesOptions) ([]*IssueData, error) {
	p.issueCalls.Add(1)
	return []*IssueData{{Number: 1}}, nil
}

func (p *fakeProvider) ListContributors(_ context.Context, _, _ string, _ ListOptions) ([]*ContributorData, error) {
	return []*ContributorData{{Login: "alice", Contributions: 10}}, nil
}

func (p *fakeProvider) ListRepositoryEvents(_ context.Context, _, _ string, _ ListOptions) ([]*EventData, error) {
	return []*EventData{{ID: "1", Type: "PushEvent"}}, nil
}

func newTestClient(t *testing.T, provider Provider) *Client {
	t.Helper()

	store := cache.NewStore(cache.WithMaxEntries(50))
	t.Cleanup(store.Close)

	fetcher := fetch.NewFetcher(store, staleness.DefaultPolicy(), fetch.WithRetries(0))
	return NewClient(provider, fetcher)
}

func TestClient_GetRepository_Caches(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client := newTestClient(t, provider)

	repo, res, err := client.GetRepository(context.Background(), "owner", "repo")
	require.NoError(t, err)
	assert.Equal(t, "owner/repo", repo.FullName)
	assert.False(t, res.FromCache)

	repo, res, err = client.GetRepository(context.Background(), "owner", "repo")
	require.NoError(t, err)
	assert.Equal(t, "owner/repo", repo.FullName)
	assert.True(t, res.FromCache)

	assert.Equal(t, int64(1), provider.repoCalls.Load())
}

func TestClient_GetRepository_PrivateNotCached(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		repo: &RepositoryData{Owner: "owner", Name: "secret", Private: true},
	}
	client := newTestClient(t, provider)

	_, _, err := client.GetRepository(context.Background(), "owner", "secret")

	require.Error(t, err)
	assert.Equal(t, ErrCodePermissionDenied, errors.GetCode(err))
	assert.Equal(t, "Private repository", errors.UserMessage(err))

	// The failure must not be cached: once access is granted the next read
	// goes back to the provider and succeeds.
	provider.repo = &RepositoryData{Owner: "owner", Name: "secret", Private: false}

	repo, _, err := client.GetRepository(context.Background(), "owner", "secret")
	require.NoError(t, err)
	assert.False(t, repo.Private)
	assert.Equal(t, int64(2), provider.repoCalls.Load())
}

func TestClient_GetRepository_ValidatesInput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &fakeProvider{})

	for _, tc := range []struct {
		name  string
		owner string
		repo  string
	}{
		{"empty owner", "", "repo"},
		{"empty repo", "owner", ""},
		{"slash in owner", "own/er", "repo"},
		{"slash in repo", "owner", "re/po"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := client.GetRepository(context.Background(), tc.owner, tc.repo)

			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestClient_GetUser_ValidatesLogin(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &fakeProvider{})

	_, _, err := client.GetUser(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidInput, errors.GetCode(err))
}

func TestClient_ListPullRequests_DistinctFiltersCachedIndependently(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client := newTestClient(t, provider)
	ctx := context.Background()

	_, _, err := client.ListPullRequests(ctx, "o", "r", ListPullRequestsOptions{State: StateOpen})
	require.NoError(t, err)

	_, _, err = client.ListPullRequests(ctx, "o", "r", ListPullRequestsOptions{State: StateClosed})
	require.NoError(t, err)

	// Same filter again: served from cache.
	_, res, err := client.ListPullRequests(ctx, "o", "r", ListPullRequestsOptions{State: StateOpen})
	require.NoError(t, err)
	assert.True(t, res.FromCache)

	assert.Equal(t, int64(2), provider.pullCalls.Load())
}

func TestClient_InvalidateRepository(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client := newTestClient(t, provider)
	ctx := context.Background()

	_, _, err := client.GetRepository(ctx, "o", "r")
	require.NoError(t, err)
	_, _, err = client.ListPullRequests(ctx, "o", "r", ListPullRequestsOptions{State: StateOpen})
	require.NoError(t, err)
	_, _, err = client.ListIssues(ctx, "o", "r", ListIssuesOptions{})
	require.NoError(t, err)

	// An unrelated repository survives the invalidation.
	_, _, err = client.GetRepository(ctx, "o", "other")
	require.NoError(t, err)

	removed := client.InvalidateRepository("o", "r")
	assert.Equal(t, 3, removed)

	_, res, err := client.GetRepository(ctx, "o", "other")
	require.NoError(t, err)
	assert.True(t, res.FromCache)

	_, res, err = client.GetRepository(ctx, "o", "r")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
}

func TestClient_InvalidateUser(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client := newTestClient(t, provider)
	ctx := context.Background()

	_, _, err := client.GetUser(ctx, "alice")
	require.NoError(t, err)

	client.InvalidateUser("alice")

	_, res, err := client.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int64(2), provider.userCalls.Load())
}

func TestClient_CacheStats(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &fakeProvider{})
	ctx := context.Background()

	_, _, err := client.GetUser(ctx, "alice")
	require.NoError(t, err)
	_, _, err = client.GetUser(ctx, "alice")
	require.NoError(t, err)

	stats := client.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 1, stats.Size)
}
