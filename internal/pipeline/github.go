package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/everstacklabs/orcatalog/internal/config"
	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

// Publisher delivers a rendered catalog file somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, file string) (*PublishResult, error)
}

// PublishResult describes what Publish did.
type PublishResult struct {
	Branch   string
	Commit   string
	PRNumber int
	PRURL    string
	// Unchanged is set when the file matched the repository and nothing
	// was committed.
	Unchanged bool
}

// GitPublisher commits the rendered file to a branch of a local clone and,
// with a GitHub token configured, pushes it and opens a pull request.
type GitPublisher struct {
	cfg *config.Config
	now func() time.Time
}

// NewGitPublisher creates a GitPublisher.
func NewGitPublisher(cfg *config.Config) *GitPublisher {
	return &GitPublisher{cfg: cfg, now: time.Now}
}

func (p *GitPublisher) Publish(ctx context.Context, file string) (*PublishResult, error) {
	pc := p.cfg.Publish
	if pc.RepoPath == "" {
		return nil, errors.New("publish.repo_path is not configured")
	}
	gitOps, err := OpenRepo(pc.RepoPath, p.cfg.GitHub.Token)
	if err != nil {
		return nil, err
	}

	previous, err := gitOps.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("reading current branch: %w", err)
	}
	branchName := "orcatalog/" + p.now().Format("20060102-150405")
	if err := gitOps.CreateBranch(branchName); err != nil {
		return nil, fmt.Errorf("creating branch: %w", err)
	}

	if err := copyFile(file, filepath.Join(pc.RepoPath, pc.Path)); err != nil {
		return nil, fmt.Errorf("copying %s into repo: %w", file, err)
	}
	if err := gitOps.Add(filepath.ToSlash(pc.Path)); err != nil {
		return nil, fmt.Errorf("staging changes: %w", err)
	}

	result := &PublishResult{Branch: branchName}
	commitMsg := fmt.Sprintf("chore(catalog): refresh OpenRouter models (%s)", p.now().UTC().Format("2006-01-02"))
	hash, err := gitOps.Commit(commitMsg, pc.AuthorName, pc.AuthorEmail)
	if errors.Is(err, errNothingToCommit) {
		slog.Info("published catalog unchanged, nothing to commit", "repo", pc.RepoPath)
		if err := gitOps.DropBranch(branchName, previous); err != nil {
			return nil, fmt.Errorf("dropping empty branch: %w", err)
		}
		result.Unchanged = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	result.Commit = hash
	slog.Info("catalog committed", "branch", branchName, "commit", hash)

	if p.cfg.GitHub.Token == "" {
		return result, nil
	}

	if err := gitOps.Push(branchName); err != nil {
		return nil, fmt.Errorf("pushing: %w", err)
	}

	number, url, err := p.createPR(ctx, branchName, commitMsg)
	if err != nil {
		return nil, err
	}
	result.PRNumber = number
	result.PRURL = url
	return result, nil
}

// createPR opens a GitHub PR for the pushed branch.
func (p *GitPublisher) createPR(ctx context.Context, branchName, title string) (int, string, error) {
	gh := p.cfg.GitHub
	if gh.Owner == "" || gh.Repo == "" {
		return 0, "", errors.New("github.owner and github.repo are required to open a pull request")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: gh.Token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	body := fmt.Sprintf("Automated refresh of `%s` from the OpenRouter model listing.", p.cfg.Publish.Path)
	pr, _, err := client.PullRequests.Create(ctx, gh.Owner, gh.Repo, &github.NewPullRequest{
		Title: &title,
		Body:  &body,
		Head:  &branchName,
		Base:  &gh.BaseBranch,
	})
	if err != nil {
		return 0, "", fmt.Errorf("creating PR: %w", err)
	}

	slog.Info("PR created",
		"number", pr.GetNumber(),
		"url", pr.GetHTMLURL())

	return pr.GetNumber(), pr.GetHTMLURL(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
