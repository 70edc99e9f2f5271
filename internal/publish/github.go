package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/remedyd/internal/config"
)

const (
	requestTitle = "Add generated playbook"
	requestBody  = "This PR contains a generated Ansible playbook."
)

// ReviewRequester opens a review request for a pushed branch.
type ReviewRequester interface {
	CreateReviewRequest(ctx context.Context, head string) (*PullRequest, error)
}

// GitHubRequester opens pull requests through the GitHub API.
type GitHubRequester struct {
	client *github.Client
	owner  string
	repo   string
	base   string
}

// NewGitHubRequester creates a requester with token authentication.
func NewGitHubRequester(ctx context.Context, cfg config.PublishConfig) (*GitHubRequester, error) {
	if !cfg.Token.IsSet() {
		return nil, errors.New("GitHub token not set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
	tc := oauth2.NewClient(ctx, ts)

	return &GitHubRequester{
		client: github.NewClient(tc),
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		base:   cfg.BaseBranch,
	}, nil
}

// CreateReviewRequest opens a pull request from head against the base
// branch with the fixed title and body.
func (g *GitHubRequester) CreateReviewRequest(ctx context.Context, head string) (*PullRequest, error) {
	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.String(requestTitle),
		Body:  github.String(requestBody),
		Head:  github.String(head),
		Base:  github.String(g.base),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestCreation, err)
	}

	return &PullRequest{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
	}, nil
}
