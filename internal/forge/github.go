package forge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v45/github"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"

	"github.com/repoindexer/repoindexer/internal/observability"
)

var githubTracer = otel.Tracer("repoindexer/forge")

// GitHubConfig configures a GitHub-backed Client.
type GitHubConfig struct {
	Token string
	Owner string
	Repo  string
}

// GitHubClient implements Client against the GitHub REST API. Construction
// mirrors the teacher's connectors/github.NewConnector: a static oauth2
// token source feeding an http.Client into github.NewClient, narrowed here
// to the three forge-client-contract methods instead of the teacher's
// broader issue/PR sync surface.
type GitHubClient struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubClient builds a GitHubClient from cfg.
func NewGitHubClient(ctx context.Context, cfg GitHubConfig) (*GitHubClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("forge: GitHub token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("forge: GitHub owner and repo are required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(ctx, ts)
	return &GitHubClient{client: github.NewClient(tc), owner: cfg.Owner, repo: cfg.Repo}, nil
}

func (c *GitHubClient) Kind() string { return "github" }

// FetchPullRequest fetches PR metadata and its changed-file list. id is the
// PR number as a string (e.g. "142").
func (c *GitHubClient) FetchPullRequest(ctx context.Context, id string) (PullRequest, error) {
	ctx, span := observability.InstrumentForgeCall(ctx, githubTracer, c.Kind(), "fetchPullRequest")
	defer span.End()

	number, err := strconv.Atoi(strings.TrimPrefix(id, "#"))
	if err != nil {
		return PullRequest{}, fmt.Errorf("forge: invalid pull request id %q: %w", id, err)
	}

	pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("forge: fetch pull request %d: %w", number, err)
	}

	var files []PullRequestFile
	opt := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.client.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opt)
		if err != nil {
			return PullRequest{}, fmt.Errorf("forge: list pull request files %d: %w", number, err)
		}
		for _, f := range page {
			files = append(files, PullRequestFile{Path: f.GetFilename(), Status: f.GetStatus()})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return PullRequest{
		ID:      id,
		Number:  number,
		Title:   pr.GetTitle(),
		URL:     pr.GetHTMLURL(),
		HeadRef: pr.GetHead().GetRef(),
		HeadSHA: pr.GetHead().GetSHA(),
		BaseRef: pr.GetBase().GetRef(),
		BaseSHA: pr.GetBase().GetSHA(),
		Files:   files,
	}, nil
}

// CreateComment posts an issue comment on the pull request identified by
// id (pull requests are issues in GitHub's comment API).
func (c *GitHubClient) CreateComment(ctx context.Context, id string, body string) error {
	ctx, span := observability.InstrumentForgeCall(ctx, githubTracer, c.Kind(), "createComment")
	defer span.End()

	number, err := strconv.Atoi(strings.TrimPrefix(id, "#"))
	if err != nil {
		return fmt.Errorf("forge: invalid pull request id %q: %w", id, err)
	}
	_, _, err = c.client.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{Body: &body})
	if err != nil {
		return fmt.Errorf("forge: create comment on %d: %w", number, err)
	}
	return nil
}

// SetCommitStatus sets a commit status on sha.
func (c *GitHubClient) SetCommitStatus(ctx context.Context, sha string, opts StatusOptions) error {
	ctx, span := observability.InstrumentForgeCall(ctx, githubTracer, c.Kind(), "setCommitStatus")
	defer span.End()

	state := string(opts.State)
	status := &github.RepoStatus{
		State:       &state,
		Context:     githubStringPtr(opts.Context),
		Description: githubStringPtr(opts.Description),
		TargetURL:   githubStringPtr(opts.TargetURL),
	}
	_, _, err := c.client.Repositories.CreateStatus(ctx, c.owner, c.repo, sha, status)
	if err != nil {
		return fmt.Errorf("forge: set commit status on %s: %w", sha, err)
	}
	return nil
}

func githubStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
