// Package publish stages generated playbooks for human review.
//
// Publishing clones the target repository's main line into a scoped scratch
// directory, writes the playbook on a fresh branch, pushes it, and opens a
// review request. The scratch directory is removed on every exit path, so
// no local repository state survives a cycle.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/remedy"
	"github.com/fyrsmithlabs/remedyd/internal/workdir"
)

const commitMessage = "Add generated playbook"

// Request describes one publish of a generated playbook.
//
// A request is created once per unmatched incident and consumed entirely by
// Publish.
type Request struct {
	// BranchName is derived from wall-clock time so branches stay unique
	// across cycles.
	BranchName string

	// FilePath is the fixed target path within the repository.
	FilePath string

	// Document is the playbook to publish.
	Document remedy.Document
}

// PullRequest is the handle of a created review request.
type PullRequest struct {
	Number int
	URL    string
}

// Pipeline publishes playbooks to the target repository.
type Pipeline struct {
	cfg       config.PublishConfig
	requester ReviewRequester
	logger    *zap.Logger
}

// NewPipeline creates a publish pipeline.
func NewPipeline(cfg config.PublishConfig, requester ReviewRequester, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, requester: requester, logger: logger}
}

// NewRequest builds the publish request for a document at the given time.
func (p *Pipeline) NewRequest(doc remedy.Document, now time.Time) Request {
	return Request{
		BranchName: fmt.Sprintf("generated-playbook-%s", now.Format("20060102150405")),
		FilePath:   p.cfg.FilePath,
		Document:   doc,
	}
}

// Publish stages the document on a fresh branch, pushes it, and opens a
// review request.
//
// A rejected review request is logged and reported as (nil, nil): the
// branch remains pushed and the cycle is not failed for it. Any other
// failure returns a typed error. The scratch clone is removed before
// returning in every case.
func (p *Pipeline) Publish(ctx context.Context, req Request) (*PullRequest, error) {
	if p.cfg.CloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.CloneTimeout.Duration())
		defer cancel()
	}

	dir, release, err := workdir.Acquire("remedyd-publish")
	if err != nil {
		return nil, err
	}
	defer release()

	p.logger.Info("cloning target repository",
		zap.String("url", p.cfg.RemoteURL),
		zap.String("branch", req.BranchName))

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           p.cfg.RemoteURL,
		ReferenceName: plumbing.NewBranchReferenceName(p.cfg.BaseBranch),
		SingleBranch:  true,
	})
	if err != nil {
		return nil, &RepoAccessError{URL: p.cfg.RemoteURL, Err: err}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, &PublishError{Step: "worktree", Err: err}
	}

	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(req.BranchName),
		Create: true,
	}); err != nil {
		return nil, &PublishError{Step: "branch", Err: err}
	}

	target := filepath.Join(dir, filepath.FromSlash(req.FilePath))
	if err := os.WriteFile(target, []byte(req.Document.Content), 0o644); err != nil {
		return nil, &PublishError{Step: "write", Err: err}
	}

	if _, err := wt.Add(req.FilePath); err != nil {
		return nil, &PublishError{Step: "stage", Err: err}
	}

	if _, err := wt.Commit(commitMessage, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "remedyd",
			Email: "remedyd@fyrsmithlabs.dev",
			When:  time.Now(),
		},
	}); err != nil {
		return nil, &PublishError{Step: "commit", Err: err}
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", req.BranchName, req.BranchName))
	if err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}); err != nil {
		return nil, &PublishError{Step: "push", Err: err}
	}

	p.logger.Info("branch pushed", zap.String("branch", req.BranchName))

	pr, err := p.requester.CreateReviewRequest(ctx, req.BranchName)
	if err != nil {
		p.logger.Error("failed to create review request",
			zap.String("branch", req.BranchName),
			zap.Error(err))
		return nil, nil
	}

	p.logger.Info("review request created",
		zap.Int("number", pr.Number),
		zap.String("url", pr.URL))
	return pr, nil
}
