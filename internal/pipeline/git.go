package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// errNothingToCommit is returned by Commit when the staged tree matches HEAD.
var errNothingToCommit = errors.New("nothing to commit")

// GitOps handles git operations for the publish repository.
type GitOps struct {
	repo     *git.Repository
	worktree *git.Worktree
	token    string
}

// OpenRepo opens a git repository at the given path.
func OpenRepo(path, token string) (*GitOps, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening repo: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	return &GitOps{repo: repo, worktree: wt, token: token}, nil
}

// CreateBranch creates and checks out a new branch at HEAD.
func (g *GitOps) CreateBranch(name string) error {
	headRef, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(name)
	ref := plumbing.NewHashReference(branchRef, headRef.Hash())

	if err := g.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("creating branch ref: %w", err)
	}

	return g.worktree.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Keep:   true,
	})
}

// DropBranch checks out restore and deletes the branch name.
func (g *GitOps) DropBranch(name, restore string) error {
	err := g.worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(restore),
		Keep:   true,
	})
	if err != nil {
		return fmt.Errorf("checking out %s: %w", restore, err)
	}
	return g.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name))
}

// Add stages a single path relative to the repository root.
func (g *GitOps) Add(path string) error {
	_, err := g.worktree.Add(path)
	return err
}

// Commit records the staged changes and returns the new commit hash.
func (g *GitOps) Commit(message, authorName, authorEmail string) (string, error) {
	status, err := g.worktree.Status()
	if err != nil {
		return "", fmt.Errorf("reading status: %w", err)
	}
	staged := false
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return "", errNothingToCommit
	}

	hash, err := g.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// Push pushes one branch to origin.
func (g *GitOps) Push(branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	return g.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("+%s:%s", ref, ref))},
		Auth: &githttp.BasicAuth{
			Username: "x-access-token",
			Password: g.token,
		},
	})
}

// CurrentBranch returns the short name of the checked-out branch.
func (g *GitOps) CurrentBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", err
	}
	return head.Name().Short(), nil
}
