// Package github provides the data-access layer for GitHub resources shown
// on the dashboard.
//
// Every read goes through a shared request wrapper: responses are cached
// under a fingerprint of the endpoint and parameters, concurrent identical
// reads share one network call, and each data category refreshes on its own
// TTL. Consumers never talk to the GitHub API directly.
//
// # Architecture
//
// The package is built on a few key pieces:
//
//  1. Provider abstraction through the Provider interface
//  2. A concrete SDK implementation in providers/sdk (google/go-github)
//  3. Client, the consumer-facing entry point routing reads through the
//     request wrapper
//  4. Structured data types (RepositoryData, PullRequestData, IssueData,
//     UserData, ContributorData, EventData) independent of the underlying SDK
//  5. Consistent error handling through the module's error taxonomy
//  6. Context support for cancellation and timeouts
//
// # Caching Behavior
//
// Reads default to blocking refresh: a miss or expired entry waits for fresh
// data. Passing WithStaleWhileRevalidate serves a stale value immediately and
// refreshes in the background. After a sync job completes,
// InvalidateRepository drops every cached response for the repository so the
// next read returns synced data.
//
// # Errors
//
// Provider implementations return structured errors: not-found for missing
// resources, auth codes for 401/403, a rate-limit code with a retry-after
// hint for 403/429 rate limiting, and network codes for transport failures
// and 5xx responses. Private repositories the credentials cannot read surface
// a permission error with the stable message "Private repository" and are
// never cached.
//
// # Usage
//
//	provider, err := sdk.NewSDKProvider(sdk.WithToken(os.Getenv("GITHUB_TOKEN")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := cache.NewStore()
//	defer store.Close()
//
//	fetcher := fetch.NewFetcher(store, staleness.DefaultPolicy())
//	client := github.NewClient(provider, fetcher)
//
//	repo, meta, err := client.GetRepository(ctx, "owner", "repo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(repo.FullName, meta.FromCache)
package github
