// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/oferdebug/projectzen/internal/config"
	"github.com/oferdebug/projectzen/internal/domain"
)

// Fetcher retrieves the raw counters for one repository.
type Fetcher interface {
	FetchRepository(ctx context.Context, repositoryID string) (*domain.RepositoryData, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client // nil unless enrichment is enabled
	perPage       int
	logger        *log.Logger
}

// repositoryPayload is the subset of the repository metadata we read.
// releases_count, dependencies_count and an object-valued default_branch are
// provider-specific extensions; GitHub itself omits them and they decode to zero.
type repositoryPayload struct {
	StargazersCount   int             `json:"stargazers_count"`
	ForksCount        int             `json:"forks_count"`
	OpenIssuesCount   int             `json:"open_issues_count"`
	PushedAt          *time.Time      `json:"pushed_at"`
	DefaultBranch     json.RawMessage `json:"default_branch"`
	ReleasesCount     int             `json:"releases_count"`
	DependenciesCount int             `json:"dependencies_count"`
}

// commitCount reads default_branch.commit_count. A plain branch name yields zero.
func (p repositoryPayload) commitCount() int {
	if len(p.DefaultBranch) == 0 || p.DefaultBranch[0] != '{' {
		return 0
	}
	var branch struct {
		CommitCount int `json:"commit_count"`
	}
	if err := json.Unmarshal(p.DefaultBranch, &branch); err != nil {
		return 0
	}
	return branch.CommitCount
}

// enrichmentQuery fetches the totals the REST metadata does not carry.
type enrichmentQuery struct {
	Repository struct {
		DefaultBranchRef struct {
			Target struct {
				Commit struct {
					History struct {
						TotalCount int
					}
				} `graphql:"... on Commit"`
			}
		}
		Releases struct {
			TotalCount int
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(cfg config.GitHubConfig, logger *log.Logger) (*GitHubGateway, error) {
	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	restClient := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL: %w", err)
		}
		restClient.BaseURL = baseURL
	}

	g := &GitHubGateway{
		restClient: restClient,
		perPage:    cfg.PerPage,
		logger:     logger,
	}
	if cfg.Enrich {
		g.graphqlClient = githubv4.NewEnterpriseClient(cfg.GraphQLURL, httpClient)
	}
	return g, nil
}

func newHTTPClient(cfg config.GitHubConfig) (*http.Client, error) {
	transport := http.DefaultTransport
	if cfg.WaitRateLimit {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		transport = rateLimitWaiter
	}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
		}
	}
	return &http.Client{Transport: transport}, nil
}

// FetchRepository fetches the repository metadata, then its pull requests and
// contributors concurrently. All requests must succeed.
func (g *GitHubGateway) FetchRepository(ctx context.Context, repositoryID string) (*domain.RepositoryData, error) {
	owner, name, err := SplitRepositoryID(repositoryID)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("[1/3] Fetching repository metadata...", "repo", repositoryID)
	req, err := g.restClient.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s", owner, name), nil)
	if err != nil {
		return nil, &domain.ProviderError{RepositoryID: repositoryID, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	var repo repositoryPayload
	if _, err := g.restClient.Do(ctx, req, &repo); err != nil {
		return nil, classifyError(repositoryID, "fetch repository metadata", err)
	}

	data := &domain.RepositoryData{
		Stars:        repo.StargazersCount,
		Forks:        repo.ForksCount,
		Issues:       repo.OpenIssuesCount,
		Commits:      repo.commitCount(),
		Releases:     repo.ReleasesCount,
		Dependencies: repo.DependenciesCount,
	}
	if repo.PushedAt != nil {
		data.LastCommit = *repo.PushedAt
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		g.logger.Debug("[2/3] Fetching pull requests...", "repo", repositoryID)
		opts := &github.PullRequestListOptions{
			State:       "all",
			ListOptions: github.ListOptions{PerPage: g.perPage},
		}
		pulls, _, err := g.restClient.PullRequests.List(egCtx, owner, name, opts)
		if err != nil {
			return classifyError(repositoryID, "fetch pull requests", err)
		}
		data.PullRequests = len(pulls)
		return nil
	})

	eg.Go(func() error {
		g.logger.Debug("[3/3] Fetching contributors...", "repo", repositoryID)
		opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: g.perPage}}
		contributors, _, err := g.restClient.Repositories.ListContributors(egCtx, owner, name, opts)
		if err != nil {
			return classifyError(repositoryID, "fetch contributors", err)
		}
		data.Contributors = len(contributors)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if g.graphqlClient != nil && (data.Commits == 0 || data.Releases == 0) {
		if err := g.enrich(ctx, repositoryID, owner, name, data); err != nil {
			return nil, err
		}
	}

	g.logger.Debug("Completed fetching repository data.", "repo", repositoryID)
	return data, nil
}

// enrich fills commit and release totals that are still zero.
func (g *GitHubGateway) enrich(ctx context.Context, repositoryID, owner, name string, data *domain.RepositoryData) error {
	g.logger.Debug("Enriching repository data using GraphQL API...", "repo", repositoryID)
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	var q enrichmentQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return classifyError(repositoryID, "execute GraphQL query for repository totals", err)
	}
	if data.Commits == 0 {
		data.Commits = q.Repository.DefaultBranchRef.Target.Commit.History.TotalCount
	}
	if data.Releases == 0 {
		data.Releases = q.Repository.Releases.TotalCount
	}
	return nil
}

// repositoryPart matches one segment of a repository id. Anything else could
// change the request path or add a query string.
var repositoryPart = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// SplitRepositoryID splits "owner/name" into its parts.
func SplitRepositoryID(repositoryID string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repositoryID), "/")
	if !ok || !validRepositoryPart(owner) || !validRepositoryPart(name) {
		return "", "", fmt.Errorf("%w: %q (expected owner/name)", domain.ErrInvalidRepositoryID, repositoryID)
	}
	return owner, name, nil
}

func validRepositoryPart(part string) bool {
	return part != "." && part != ".." && repositoryPart.MatchString(part)
}

// classifyError maps a client error onto the provider error taxonomy.
func classifyError(repositoryID, op string, err error) error {
	var (
		errResp  *github.ErrorResponse
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		urlErr   *url.Error
	)
	status := 0
	switch {
	case errors.As(err, &errResp):
		status = responseStatus(errResp.Response)
	case errors.As(err, &rateErr):
		status = responseStatus(rateErr.Response)
	case errors.As(err, &abuseErr):
		status = responseStatus(abuseErr.Response)
	case errors.As(err, &urlErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return &domain.NetworkError{RepositoryID: repositoryID, Err: fmt.Errorf("failed to %s: %w", op, err)}
	}

	if status == http.StatusNotFound {
		return &domain.NotFoundError{RepositoryID: repositoryID}
	}
	return &domain.ProviderError{
		RepositoryID: repositoryID,
		StatusCode:   status,
		Err:          fmt.Errorf("failed to %s: %w", op, err),
	}
}

func responseStatus(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
